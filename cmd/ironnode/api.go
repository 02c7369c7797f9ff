package main

import (
	"git.gammaspectra.live/IronFish/network/types"
	"git.gammaspectra.live/IronFish/network/utils"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"strings"
)

type StatusResult struct {
	Identity string           `json:"identity"`
	Agent    string           `json:"agent"`
	Version  uint32           `json:"version"`
	Name     *string          `json:"name,omitempty"`
	Port     *uint16          `json:"port,omitempty"`
	Head     *types.ChainHead `json:"head"`
	Peers    int              `json:"peers"`
}

type PeerResult struct {
	Incoming       bool    `json:"incoming"`
	Address        string  `json:"address"`
	ConnectionTime uint64  `json:"connection_time"`
	Identity       string  `json:"identity,omitempty"`
	Agent          string  `json:"agent,omitempty"`
	Version        uint32  `json:"version,omitempty"`
	Name           *string `json:"name,omitempty"`
	Port           *uint16 `json:"port,omitempty"`
	Head           string  `json:"head,omitempty"`
	Sequence       uint64  `json:"sequence,omitempty"`
	Work           string  `json:"work,omitempty"`
}

func encodeJson(r *http.Request, d any) ([]byte, error) {
	if strings.Index(strings.ToLower(r.Header.Get("user-agent")), "mozilla") != -1 {
		return utils.MarshalJSONIndent(d, "    ")
	} else {
		return utils.MarshalJSON(d)
	}
}

func writeJson(writer http.ResponseWriter, request *http.Request, d any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	buf, err := encodeJson(request, d)
	if err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(buf)
}

func getServerMux(node *Node) *mux.Router {
	serveMux := mux.NewRouter()

	serveMux.HandleFunc("/status", func(writer http.ResponseWriter, request *http.Request) {
		local := node.LocalPeer()
		writeJson(writer, request, StatusResult{
			Identity: local.Identity().String(),
			Agent:    local.Agent(),
			Version:  local.Version(),
			Name:     local.Name(),
			Port:     local.Port(),
			Head:     node.Tracker().Head(),
			Peers:    len(node.Connections()),
		})
	})

	serveMux.HandleFunc("/peers", func(writer http.ResponseWriter, request *http.Request) {
		connections := node.Connections()
		result := make([]PeerResult, 0, len(connections))
		for _, c := range connections {
			r := PeerResult{
				Incoming:       c.IsIncomingConnection,
				Address:        c.Address,
				ConnectionTime: uint64(c.ConnectionTime.Unix()),
			}
			if remote := c.Remote(); remote != nil {
				r.Identity = remote.Identity.String()
				r.Agent = remote.Agent
				r.Version = remote.Version
				r.Name = remote.Name
				r.Port = remote.Port
				r.Head = remote.Head.String()
				r.Sequence = remote.Sequence
				r.Work = remote.Work
			}
			result = append(result, r)
		}
		writeJson(writer, request, result)
	})

	serveMux.HandleFunc("/peers/{identity:.+}", func(writer http.ResponseWriter, request *http.Request) {
		for _, c := range node.Connections() {
			if remote := c.Remote(); remote != nil && remote.Identity.String() == mux.Vars(request)["identity"] {
				writeJson(writer, request, PeerResult{
					Incoming:       c.IsIncomingConnection,
					Address:        c.Address,
					ConnectionTime: uint64(c.ConnectionTime.Unix()),
					Identity:       remote.Identity.String(),
					Agent:          remote.Agent,
					Version:        remote.Version,
					Name:           remote.Name,
					Port:           remote.Port,
					Head:           remote.Head.String(),
					Sequence:       remote.Sequence,
					Work:           remote.Work,
				})
				return
			}
		}
		writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		writer.WriteHeader(http.StatusNotFound)
		_, _ = writer.Write([]byte("{}"))
	})

	serveMux.Handle("/metrics", promhttp.Handler())

	return serveMux
}
