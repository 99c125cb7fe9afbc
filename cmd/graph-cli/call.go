package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// runCallCommand invokes a hub_* method. Arguments that parse as JSON are
// passed through; anything else is sent as a string.
func runCallCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "Usage: graph-cli call <method> [params...]")
		return 1
	}
	method := strings.TrimSpace(args[0])
	if !strings.HasPrefix(method, "hub_") {
		method = "hub_" + method
	}
	params := make([]interface{}, 0, len(args)-1)
	for _, arg := range args[1:] {
		var decoded interface{}
		if err := json.Unmarshal([]byte(arg), &decoded); err == nil {
			params = append(params, json.RawMessage(arg))
			continue
		}
		params = append(params, arg)
	}
	result, rpcErr, err := rpcCall(method, params)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}
