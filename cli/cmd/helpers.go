package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type dispatchBody struct {
	Type             string      `json:"__type"`
	DeployIdentifier string      `json:"deploy_identifier"`
	ChallName        string      `json:"chall_name"`
	Modifications    interface{} `json:"modifications,omitempty"`
}

func send(body dispatchBody) error {
	if serverAddr == "" {
		return fmt.Errorf("--server (or ARCSCTL_SERVER) is required")
	}
	if authToken == "" {
		return fmt.Errorf("--token (or ARCSCTL_TOKEN) is required")
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, serverAddr, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+authToken)

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	fmt.Printf("%d %s\n", resp.StatusCode, string(out))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}
