package main

import (
	"flag"

	"radisnap/cmd"
	"radisnap/config"
)

func main() {
	config.Load()

	var (
		server   bool
		port     int
		download bool
	)

	flag.BoolVar(&server, "server", false, "Start in web server mode")
	flag.IntVar(&port, "port", 8080, "Port for web server mode")
	flag.BoolVar(&download, "download", false, "Download every reserved booking and exit")
	flag.Parse()

	// Server mode takes precedence
	if server {
		cmd.StartWebServer(port)
		return
	}

	if download {
		cmd.RunBatch()
		return
	}

	flag.Usage()
}
