// Copyright 2026 The ddww Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ddww-srv serves a web page running the YPR write/read round trip.
package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/ipp-aug/ddww"
	"github.com/ipp-aug/ddww/ddmem"
	"github.com/ipp-aug/ddww/h5lib"
	"github.com/pkg/errors"
	"golang.org/x/crypto/acme/autocert"
)

var (
	addrFlag  = flag.String("addr", ":8080", "server address:port")
	servFlag  = flag.String("serv", "http", "server protocol (http, https)")
	hostFlag  = flag.String("host", "", "server domain name for TLS")
	storeFlag = flag.String("store", "", "root directory of the HDF5 shotfile store (default: in memory)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			`Usage: ddww-srv [options]

ex:

 $> ddww-srv -addr :8080 -store ./shotfiles
 $> ddww-srv -addr :443 -serv https -host example.org

options:
`,
		)
		flag.PrintDefaults()
	}

	flag.Parse()

	log.SetPrefix("ddww-srv: ")
	log.SetFlags(0)

	dir, err := os.MkdirTemp("", "ddww-srv-")
	if err != nil {
		log.Panicf("could not create temporary directory: %v", err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	run(dir, c)
}

func newLib(store string) ddww.Lib {
	if store == "" {
		return ddmem.New()
	}
	return h5lib.Open(store)
}

func run(dir string, c chan os.Signal) {
	defer func() {
		log.Printf("shutdown sequence...")
		log.Printf("removing directory %q...", dir)
		os.RemoveAll(dir)
	}()

	log.Printf("%s server listening on %s", *servFlag, *addrFlag)

	srv := newServer(dir, newLib(*storeFlag), http.DefaultServeMux)
	defer srv.Shutdown()

	go func() {
		log.Fatal(listen(*servFlag, *addrFlag, *hostFlag))
	}()
	<-c
}

func listen(proto, addr, host string) error {
	switch proto {
	case "http":
		return http.ListenAndServe(addr, nil)
	case "https":
		m := autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(host),
			Cache:      autocert.DirCache("certs"),
		}
		server := &http.Server{
			Addr: addr,
			TLSConfig: &tls.Config{
				GetCertificate: m.GetCertificate,
			},
		}
		return server.ListenAndServeTLS("", "")
	default:
		return errors.Errorf("unknown server protocol %q", proto)
	}
}
