package api

import (
	"flag"
	"net"
	"strconv"

	"github.com/grafana/globalconf"
	log "github.com/sirupsen/logrus"
)

var (
	port       int
	listenHost string

	Addr        string
	UseSSL      bool
	certFile    string
	keyFile     string
	useGzip     bool
	corsEnabled bool
)

func ConfigSetup() {
	apiCfg := flag.NewFlagSet("http", flag.ExitOnError)
	apiCfg.IntVar(&port, "port", 8080, "http listener port. (env var HTTP_PORT)")
	apiCfg.StringVar(&listenHost, "listen-host", "", "http listener host. empty means all interfaces")
	apiCfg.BoolVar(&UseSSL, "ssl", false, "use HTTPS")
	apiCfg.StringVar(&certFile, "cert-file", "", "SSL certificate file")
	apiCfg.StringVar(&keyFile, "key-file", "", "SSL key file")
	apiCfg.BoolVar(&useGzip, "use-gzip", false, "use GZIP compression of responses, for clients that accept it")
	apiCfg.BoolVar(&corsEnabled, "cors", true, "allow cross origin requests from any origin")
	globalconf.Register("http", apiCfg, flag.ExitOnError)
}

func ConfigProcess() {
	if port < 1 || port > 65535 {
		log.Fatalf("API port %d out of range", port)
	}
	Addr = net.JoinHostPort(listenHost, strconv.Itoa(port))

	//validate the addr
	_, err := net.ResolveTCPAddr("tcp", Addr)
	if err != nil {
		log.Fatalf("API listen address %q is not a valid TCP address: %s", Addr, err)
	}
	if UseSSL && (certFile == "" || keyFile == "") {
		log.Fatal("API ssl requires cert-file and key-file")
	}
}
