// 0http client: subscribes to a server's event stream over QUIC and
// prints each delivered event.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"dev.c0redev.0http/internal/proto"
	"dev.c0redev.0http/internal/transport"
)

func main() {
	addr := os.Getenv("0HTTP_QUIC_ADDR")
	if addr == "" {
		addr = "127.0.0.1:4443"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	conn, err := transport.DialStream(ctx, addr, nil)
	cancel()
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Close()
	log.Println("subscribed to", addr)

	if err := proto.EncodeFrame(conn, proto.NewFrame(proto.TypePing, 0, 0, []byte("00000000"))); err != nil {
		log.Fatal("ping:", err)
	}

	r := bufio.NewReader(conn)
	payloadBuf := make([]byte, 16*1024)
	for {
		f, err := proto.ReadFrame(r, payloadBuf)
		if err != nil {
			if err == io.EOF {
				return
			}
			log.Fatal("read:", err)
		}
		switch {
		case !f.Type.Known():
			log.Println("skipping", f.Type)
		case f.Type == proto.TypePing && f.HasFlag(proto.FlagAck):
			log.Println("server acked ping")
		case f.Type == proto.TypeData:
			fmt.Print(string(f.Payload))
		case f.Type == proto.TypeGoAway:
			log.Println("server going away")
			return
		}
	}
}
