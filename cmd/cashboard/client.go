package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

func apiBase() string {
	host := cfg.API.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.API.Port)
}

// httpJSON calls the local API and returns the data of a successful
// response.
func httpJSON(method, path string, payload any) (map[string]any, error) {
	var body io.Reader = bytes.NewReader(nil)
	switch p := payload.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(p)
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, apiBase()+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if ok, _ := out["success"].(bool); !ok {
		if msg, _ := out["error"].(string); msg != "" {
			return nil, errors.New(msg)
		}
		return nil, fmt.Errorf("request failed: %s", resp.Status)
	}
	if data, _ := out["data"].(map[string]any); data != nil {
		return data, nil
	}
	return out, nil
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions on a running server",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a new session",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := httpJSON(http.MethodPost, "/sessions", nil)
		if err != nil {
			return err
		}
		fmt.Printf("created session: %s\n", data["id"])
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"ps"},
	Short:   "List sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := httpJSON(http.MethodGet, "/sessions", nil)
		if err != nil {
			return err
		}
		list, _ := data["sessions"].([]any)
		for _, it := range list {
			m, _ := it.(map[string]any)
			fmt.Printf("%s\t%s\t%s\n", m["id"], m["created"], m["activeTab"])
		}
		return nil
	},
}

var sessionLogsCmd = &cobra.Command{
	Use:   "logs <id>",
	Short: "Print a session's activity log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := httpJSON(http.MethodGet, "/sessions/"+args[0]+"/logs", nil)
		if err != nil {
			return err
		}
		logs, _ := data["logs"].([]any)
		for _, l := range logs {
			fmt.Println(l)
		}
		return nil
	},
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <id> <file>",
	Short: "Import a workflow file into a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		data, err := httpJSON(http.MethodPost, "/sessions/"+args[0]+"/import", b)
		if err != nil {
			return err
		}
		fmt.Printf("imported %s workflow\n", data["format"])
		return nil
	},
}

var sessionCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := httpJSON(http.MethodDelete, "/sessions/"+args[0], nil)
		return err
	},
}

func init() {
	sessionCmd.AddCommand(sessionCreateCmd, sessionListCmd, sessionLogsCmd, sessionImportCmd, sessionCloseCmd)
}
