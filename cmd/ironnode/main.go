package main

import (
	"context"
	"flag"
	"git.gammaspectra.live/IronFish/network/utils"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"
)

func main() {

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	listen := flag.String("listen", "0.0.0.0:9033", "IP:port for the WebSocket peer server to listen on. Empty disables incoming connections")
	connect := flag.String("connect", "", "Comma-separated list of ws:// or wss:// peer urls to connect to")
	identitySecret := flag.String("identity", "", "Hex encoded 32-byte secret key. A new identity is generated when empty")
	agent := flag.String("agent", "ironnode/0.1", "Agent string announced in the handshake")
	version := flag.Uint("version", 1, "Protocol version announced in the handshake")
	name := flag.String("name", "", "Optional node name announced in the handshake")
	externalPort := flag.Uint64("external-port", 0, "Port number that your router uses for mapping to your local listen port. Use it if you are behind a NAT and still want to accept incoming connections")
	workers := flag.Int("workers", 0, "Number of signaling crypto workers, 0 uses one per CPU")
	zmqUrl := flag.String("zmq", "tcp://127.0.0.1:9035", "ZMQ endpoint of the chain process publishing chain head notifications")
	apiBind := flag.String("api-bind", "", "Bind to this address to serve node status, peers and metrics")
	latency := flag.Duration("latency", 0, "Delay added to every outgoing message. Testing only")
	logLevel := flag.String("log-level", "error,info", "Comma-separated log levels to enable: error, info, notice, debug or all")
	debugLog := flag.Bool("debug", false, "Log more details")
	flag.Parse()

	utils.GlobalLogLevel = utils.ParseLogLevel(*logLevel)

	if *debugLog {
		log.SetFlags(log.Flags() | log.Lshortfile)
		utils.GlobalLogLevel = utils.LogLevelAll
	}

	debug.SetTraceback("all")

	settings := make(map[string]string)
	settings["listen"] = *listen
	settings["connect"] = *connect
	settings["identity"] = *identitySecret
	settings["agent"] = *agent
	settings["version"] = strconv.FormatUint(uint64(*version), 10)
	settings["name"] = *name
	settings["external-port"] = strconv.FormatUint(*externalPort, 10)
	settings["workers"] = strconv.Itoa(*workers)
	settings["zmq-url"] = *zmqUrl
	if *latency > 0 {
		settings["latency"] = latency.String()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	node, err := NewNode(ctx, settings)
	if err != nil {
		log.Fatalf("Could not start node: %s", err)
	}
	defer node.Close()

	if *apiBind != "" {
		serveMux := getServerMux(node)

		server := &http.Server{
			Addr:        *apiBind,
			ReadTimeout: time.Second * 2,
			Handler: http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				if request.Method != "GET" && request.Method != "HEAD" {
					writer.WriteHeader(http.StatusForbidden)
					return
				}

				utils.Debugf("handling %s", request.URL.String())

				serveMux.ServeHTTP(writer, request)
			}),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Panic(err)
			}
		}()
		defer server.Close()
	}

	if err := node.Run(); err != nil {
		log.Printf("Node stopped: %s", err)
	}
}
