// 0http server: static edge with negotiated compression, zero-copy
// transfer, and broadcast event streams over SSE and QUIC frames.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"dev.c0redev.0http/internal/edge"
	"dev.c0redev.0http/internal/hub"
	"dev.c0redev.0http/internal/negotiate"
	"dev.c0redev.0http/internal/store"
	"dev.c0redev.0http/internal/transfer"
	"dev.c0redev.0http/internal/transport"
)

func main() {
	httpAddr := os.Getenv("0HTTP_HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	quicAddr := os.Getenv("0HTTP_QUIC_ADDR")
	if quicAddr == "" {
		quicAddr = ":4443"
	}
	webRoot := os.Getenv("0HTTP_WEB_ROOT")
	if webRoot == "" {
		webRoot = "./www"
	}
	dbPath := os.Getenv("0HTTP_DB")
	if dbPath == "" {
		dbPath = "0http.db"
	}
	period := 2 * time.Second
	if v := os.Getenv("0HTTP_TICK_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			log.Fatal("0HTTP_TICK_MS must be a positive integer")
		}
		period = time.Duration(ms) * time.Millisecond
	}
	var chunkSize int64
	if v := os.Getenv("0HTTP_CHUNK_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			log.Fatal("0HTTP_CHUNK_BYTES must be a positive integer")
		}
		chunkSize = n
	}

	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal("store:", err)
	}
	defer db.Close()

	counters := &transfer.Counters{}
	engine := transfer.NewEngine(chunkSize, counters)
	neg := negotiate.New()
	log.Println("brotli backend available:", neg.BackendAvailable())

	// Heartbeat producer: one counter snapshot per tick, journaled and
	// fanned out to every live subscriber.
	h := hub.New(period, func(seq uint64) hub.Event {
		snap := counters.Snapshot()
		if err := db.RecordMetrics(snap.Transfers, snap.Bytes, snap.Errors); err != nil {
			log.Println("metrics journal:", err)
		}
		data, _ := json.Marshal(snap)
		return hub.Event{
			ID:   strconv.FormatUint(seq, 10),
			Name: "metrics",
			Data: string(data),
		}
	})
	h.Start()

	mux := http.NewServeMux()
	mux.Handle("/events", edge.Events(h))
	mux.Handle("/", &edge.Static{Root: webRoot, Neg: neg, Engine: engine, DB: db})
	httpSrv := &http.Server{Addr: httpAddr, Handler: mux}
	go func() {
		log.Println("http on", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http:", err)
		}
	}()

	cert, err := transport.SelfSignedCert()
	if err != nil {
		log.Fatal("cert:", err)
	}
	ln, err := transport.ListenAddr(quicAddr, transport.ServerTLS(cert))
	if err != nil {
		log.Fatal("quic:", err)
	}
	ctx, stopServe := context.WithCancel(context.Background())
	go func() {
		log.Println("quic on", quicAddr)
		_ = transport.Serve(ctx, ln, func(c net.Conn) {
			edge.ServeFrameStream(h, c)
		})
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down")

	h.Stop()
	stopServe()
	_ = ln.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
}
