package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/hamed0406/serverprobe/internal/domain"
)

const usage = `usage:
  cli probe <name|host>        race the server's ports
  cli service <name> <port>    probe one port of a named server
  cli status                   print the uptime cache`

var client = &http.Client{Timeout: 15 * time.Second}

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "probe":
		if len(args) != 2 {
			err = fmt.Errorf("probe needs <name|host>")
			break
		}
		err = probeServer(api, args[1])
	case "service":
		if len(args) != 3 {
			err = fmt.Errorf("service needs <name> <port>")
			break
		}
		err = probeService(api, args[1], args[2])
	case "status":
		err = status(api)
	default:
		err = fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func probeServer(api, target string) error {
	q := url.Values{}
	if net.ParseIP(target) != nil {
		q.Set("host", target)
	} else {
		q.Set("name", target)
	}
	var res domain.ProbeResult
	if err := getJSON(api+"/probe-server?"+q.Encode(), &res); err != nil {
		return err
	}
	if !res.OK {
		fmt.Printf("%s: DOWN (no port answered)\n", target)
		return nil
	}
	fmt.Printf("%s: UP on port %d\n", target, res.Port)
	return nil
}

func probeService(api, name, port string) error {
	if _, err := strconv.Atoi(port); err != nil {
		return fmt.Errorf("invalid port %q", port)
	}
	q := url.Values{"name": {name}, "port": {port}}
	var res domain.ProbeResult
	if err := getJSON(api+"/probe-service?"+q.Encode(), &res); err != nil {
		return err
	}
	switch {
	case !res.OK:
		fmt.Printf("%s:%s DOWN (%s)\n", name, port, res.Reason)
	case res.Uptime != nil:
		fmt.Printf("%s:%s UP, uptime %.0fs\n", name, port, *res.Uptime)
	default:
		fmt.Printf("%s:%s UP\n", name, port)
	}
	return nil
}

func status(api string) error {
	var all map[string]domain.UptimeRecord
	if err := getJSON(api+"/status", &all); err != nil {
		return err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rec := all[k]
		uptime := "-"
		if rec.Uptime != nil {
			uptime = strconv.FormatFloat(*rec.Uptime, 'f', -1, 64)
		}
		fmt.Printf("%-30s uptime=%-12s seen=%s\n", k, uptime, rec.ObservedAt.Format(time.RFC3339))
	}
	return nil
}

func getJSON(u string, v any) error {
	resp, err := client.Get(u)
	if err != nil {
		return fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("API returned %s: %s", resp.Status, e.Error)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
