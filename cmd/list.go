package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mariolpantunes/optviewer/internal/registry"
)

var listServer string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List algorithms, functions and initializers",
	Long: `Prints the names accepted by the dashboard. With --server the lists are
fetched from a running server's /config endpoint instead.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listServer, "server", "", "Server URL to query instead of the built-in registry")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	names := registry.Default().Names()
	if listServer != "" {
		var err error
		names, err = fetchNames(strings.TrimSuffix(listServer, "/") + "/config")
		if err != nil {
			return err
		}
	}
	printNames(cmd.OutOrStdout(), names)
	return nil
}

func fetchNames(url string) (registry.Names, error) {
	var names registry.Names

	resp, err := http.Get(url)
	if err != nil {
		return names, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return names, fmt.Errorf("server returned error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		return names, fmt.Errorf("failed to decode response: %w", err)
	}
	return names, nil
}

func printNames(w io.Writer, names registry.Names) {
	fmt.Fprintf(w, "Algorithms:   %s\n", strings.Join(names.Algorithms, ", "))
	fmt.Fprintf(w, "Functions:    %s\n", strings.Join(names.Functions, ", "))
	fmt.Fprintf(w, "Initializers: %s\n", strings.Join(names.Initializers, ", "))
}
