package utils

// Shorten keeps n characters at each end of value, for log lines carrying identities or hashes
func Shorten(value string, n int) string {
	if len(value) <= n*2+3 {
		return value
	} else {
		return value[:n] + "..." + value[len(value)-n:]
	}
}
