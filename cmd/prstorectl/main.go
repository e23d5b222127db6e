// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// prstorectl is an inspection tool for a prstorage database: list and
// edit records in one table, generate demo records, and attach a
// Watcher to a Storage for a while. The Watcher only sees mutations
// made through that Storage inside this process; writes by other
// processes are not observed.
//
// It is packaging, not the hard part of this module — the teacher
// repo ships a CLI alongside every library it cares about, so this one
// does too.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli"

	"github.com/bitmark-inc/logger"

	"prstorage/kvstore"
	"prstorage/prstorage"
	"prstorage/watcher"
)

var version = "zero" // set by the linker: go build -ldflags "-X main.version=M.N" ./...

func main() {
	app := cli.NewApp()
	app.Name = "prstorectl"
	app.Usage = "inspect and exercise a prstorage database"
	app.Version = version
	app.HideVersion = true

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "db, d",
			Value: "prstorectl.db",
			Usage: "environment directory",
		},
		cli.StringFlag{
			Name:  "table, t",
			Value: "records",
			Usage: "table prefix to operate on",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:      "put",
			Usage:     "insert or overwrite a record",
			ArgsUsage: "<key> <value>",
			Action:    runPut,
		},
		{
			Name:      "get",
			Usage:     "fetch one record",
			ArgsUsage: "<key>",
			Action:    runGet,
		},
		{
			Name:      "rm",
			Usage:     "remove one record",
			ArgsUsage: "<key>",
			Action:    runRemove,
		},
		{
			Name:   "ls",
			Usage:  "list every record",
			Action: runList,
		},
		{
			Name:      "gen",
			Usage:     "generate N demo records with random uuid keys",
			ArgsUsage: "<n>",
			Action:    runGenerate,
		},
		{
			Name:      "watch",
			Usage:     "watch this process's storage for the given duration (other processes' writes are not seen)",
			ArgsUsage: "<seconds>",
			Action:    runWatch,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "prstorectl: %s\n", err)
		os.Exit(1)
	}
}

// record is the one demo type this CLI knows how to store; a real
// deployment would generate one binary per collection rather than
// take a type parameter from the command line.
type record struct {
	Key   string
	Value string
}

type recordMarshaller struct{}

func (recordMarshaller) ByteSize(r record) uint32 { return uint32(1 + len(r.Key) + len(r.Value)) }

func (recordMarshaller) Write(r record, dest []byte) {
	dest[0] = byte(len(r.Key))
	copy(dest[1:], r.Key)
	copy(dest[1+len(r.Key):], r.Value)
}

func (recordMarshaller) Read(src []byte) record {
	n := int(src[0])
	return record{Key: string(src[1 : 1+n]), Value: string(src[1+n:])}
}

type stringKeyCodec struct{}

func (stringKeyCodec) EncodeKey(k string) []byte { return []byte(k) }
func (stringKeyCodec) DecodeKey(b []byte) string  { return string(b) }

func openStorage(c *cli.Context) (*prstorage.Storage[string, record], func(), error) {
	dir := c.GlobalString("db")
	env, err := kvstore.OpenEnvironment(dir)
	if err != nil {
		return nil, nil, err
	}
	db, err := env.Database("main", false)
	if err != nil {
		_ = env.Close()
		return nil, nil, err
	}

	store, err := prstorage.NewStorage[string, record](
		db, []byte(c.GlobalString("table")), stringKeyCodec{},
		func(r record) string { return r.Key },
		recordMarshaller{}, nil, nil,
	)
	if err != nil {
		_ = env.Close()
		return nil, nil, err
	}
	return store, func() { _ = env.Close() }, nil
}

func runPut(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: prstorectl put <key> <value>", 1)
	}
	store, closer, err := openStorage(c)
	if err != nil {
		return err
	}
	defer closer()

	r := record{Key: c.Args().Get(0), Value: c.Args().Get(1)}
	if err := store.Update(r); err != nil {
		return err
	}
	fmt.Printf("put %q\n", r.Key)
	return nil
}

func runGet(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: prstorectl get <key>", 1)
	}
	store, closer, err := openStorage(c)
	if err != nil {
		return err
	}
	defer closer()

	r, err := store.Get(c.Args().Get(0))
	if err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", r.Key, r.Value)
	return nil
}

func runRemove(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: prstorectl rm <key>", 1)
	}
	store, closer, err := openStorage(c)
	if err != nil {
		return err
	}
	defer closer()

	ok, err := store.Remove(c.Args().Get(0))
	if err != nil {
		return err
	}
	if !ok {
		return cli.NewExitError("no such key", 1)
	}
	fmt.Printf("removed %q\n", c.Args().Get(0))
	return nil
}

func runList(c *cli.Context) error {
	store, closer, err := openStorage(c)
	if err != nil {
		return err
	}
	defer closer()

	all, err := store.All()
	if err != nil {
		return err
	}
	for _, r := range all {
		fmt.Printf("%s = %s\n", r.Key, r.Value)
	}
	fmt.Printf("%d record(s)\n", len(all))
	return nil
}

func runGenerate(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: prstorectl gen <n>", 1)
	}
	var n int
	if _, err := fmt.Sscanf(c.Args().Get(0), "%d", &n); err != nil || n < 1 {
		return cli.NewExitError("n must be a positive integer", 1)
	}

	store, closer, err := openStorage(c)
	if err != nil {
		return err
	}
	defer closer()

	for i := 0; i < n; i++ {
		key := uuid.New().String()
		if err := store.Update(record{Key: key, Value: fmt.Sprintf("demo-%d", i)}); err != nil {
			return err
		}
	}
	fmt.Printf("generated %d record(s)\n", n)
	return nil
}

func runWatch(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: prstorectl watch <seconds>", 1)
	}
	var seconds int
	if _, err := fmt.Sscanf(c.Args().Get(0), "%d", &seconds); err != nil || seconds < 1 {
		return cli.NewExitError("seconds must be a positive integer", 1)
	}

	dir := c.GlobalString("db")
	env, err := kvstore.OpenEnvironment(dir)
	if err != nil {
		return err
	}
	defer env.Close()

	db, err := env.Database("main", false)
	if err != nil {
		return err
	}

	w := watcher.New[record]()
	defer w.Close()

	w.AppendPermanent(watcher.AllEvents, func(r record) {
		fmt.Printf("event: %s = %s\n", r.Key, r.Value)
	})

	_, err = prstorage.NewStorage[string, record](
		db, []byte(c.GlobalString("table")), stringKeyCodec{},
		func(r record) string { return r.Key },
		recordMarshaller{}, nil, w,
	)
	if err != nil {
		return err
	}

	log := logger.New("PRSTORECTL")
	log.Infof("watching for %d seconds", seconds)
	time.Sleep(time.Duration(seconds) * time.Second)
	return nil
}
