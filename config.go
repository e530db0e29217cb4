package main

import (
	"os"
	"strconv"
)

var (
	catalogDir   = os.Getenv("HUFFPACK_CATALOG") // empty disables the catalog
	tableEntries = calcTableEntries()
)

func calcTableEntries() int {
	if e := os.Getenv("HUFFPACK_TABLES"); e != "" {
		n, err := strconv.Atoi(e)
		if err != nil || n < 1 {
			panic("malformed HUFFPACK_TABLES environment variable, should be a positive number of tables: " + e)
		}
		return n
	}
	return 64 // weights tables are 1 KiB each
}
