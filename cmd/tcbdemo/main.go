package main

import (
	"fmt"
	"net/netip"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/minio/cli"

	"github.com/nrfgo/tcbstack/tcp"
)

var globalFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "mss",
		Usage: "maximum segment size advertised on open",
		Value: int(tcp.MSSDefault),
	},
	cli.DurationFlag{
		Name:  "connection-timeout",
		Usage: "idle connection timeout before a blocked call aborts",
		Value: tcp.ConnectionTimeout,
	},
	cli.DurationFlag{
		Name:  "msl",
		Usage: "maximum segment lifetime; TIME_WAIT lasts 2*msl",
		Value: tcp.MSL,
	},
	cli.IntFlag{
		Name:  "retries-max",
		Usage: "retransmit attempts tolerated before aborting",
		Value: tcp.RetriesMax,
	},
	cli.StringFlag{
		Name:  "message",
		Usage: "payload the client sends to the server",
		Value: "hello over tcbstack",
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "tcbdemo"
	app.Usage = "drive a handshake/data/close exchange between two in-process TCBs"
	app.Flags = globalFlags
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("tcbdemo: %v", err))
		os.Exit(1)
	}
}

func run(c *cli.Context) {
	tcp.MSSDefault = uint16(c.GlobalInt("mss"))
	tcp.ConnectionTimeout = c.GlobalDuration("connection-timeout")
	tcp.MSL = c.GlobalDuration("msl")
	tcp.RetriesMax = c.GlobalInt("retries-max")
	message := c.GlobalString("message")

	clientLocal := tcp.Endpoint{Addr: netip.MustParseAddr("2001:db8::1"), Port: 40000}
	serverLocal := tcp.Endpoint{Addr: netip.MustParseAddr("2001:db8::2"), Port: 80}

	rawClient, rawServer := tcp.NewLoopbackPair(clientLocal, serverLocal)
	clientFace := newTraceFace("client", clientLocal, rawClient)
	serverFace := newTraceFace("server", serverLocal, rawServer)

	clientPool := tcp.NewBufferPool(4, 4096)
	serverPool := tcp.NewBufferPool(4, 4096)
	clientTimers := tcp.NewTimerService()
	serverTimers := tcp.NewTimerService()
	clientLoop := tcp.NewEventLoop(clientFace)
	serverLoop := tcp.NewEventLoop(serverFace)

	client := tcp.NewTCB(clientPool, clientTimers, clientFace, clientLoop)
	server := tcp.NewTCB(serverPool, serverTimers, serverFace, serverLoop)

	go clientLoop.Run()
	go serverLoop.Run()
	defer clientLoop.Stop()
	defer serverLoop.Stop()
	defer clientTimers.Close()
	defer serverTimers.Close()

	color.Cyan("tcbdemo: opening connection [%s] -> [%s]", clientLocal, serverLocal)

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.OpenListen(serverLocal, 10*time.Second) }()
	for server.State() != tcp.StateListen {
		time.Sleep(time.Millisecond)
	}
	if err := client.OpenActive(clientLocal, serverLocal, uint16(c.GlobalInt("mss")), 10*time.Second); err != nil {
		exitf("active open failed: %v", err)
	}
	if err := <-serverErr; err != nil {
		exitf("passive open failed: %v", err)
	}
	color.Green("tcbdemo: handshake complete, both sides ESTABLISHED")

	n, err := client.Send([]byte(message), 5*time.Second)
	if err != nil {
		exitf("send failed: %v", err)
	}
	color.Yellow("tcbdemo: client sent %d bytes: %q", n, message)

	buf := make([]byte, len(message))
	n, err = server.Recv(buf, 5*time.Second)
	if err != nil {
		exitf("recv failed: %v", err)
	}
	color.Yellow("tcbdemo: server received %d bytes: %q", n, buf[:n])

	if err := client.Close(10 * time.Second); err != nil {
		exitf("client close failed: %v", err)
	}
	color.Green("tcbdemo: client closed")

	for server.State() != tcp.StateCloseWait {
		time.Sleep(time.Millisecond)
	}
	if err := server.Close(10 * time.Second); err != nil {
		exitf("server close failed: %v", err)
	}
	color.Green("tcbdemo: server closed, connection fully torn down")
}

func exitf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, color.RedString(format, args...))
	os.Exit(1)
}
