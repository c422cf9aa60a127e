// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 OIS contributors

package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var catalogAddr string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Dump a running endpoint's catalog as a table",
	Long: `Fetches GET /catalog from a running "host"/"device"/"serve" process's
metrics side-car and renders the inputs, outputs, and events as tables,
grounded on NCAR-agnoio's Commands.String() table rendering.`,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().StringVar(&catalogAddr, "addr", "http://localhost:9480", "Metrics side-car base address")
	rootCmd.AddCommand(catalogCmd)
}

type catalogNumericEntry struct {
	Name    string `json:"name"`
	Channel uint16 `json:"channel"`
	Active  bool   `json:"active"`
	Type    string `json:"type"`
	Value   any    `json:"value"`
}

type catalogEventEntry struct {
	Name    string `json:"name"`
	Channel uint16 `json:"channel"`
}

type catalogResponse struct {
	Inputs  []catalogNumericEntry `json:"inputs"`
	Outputs []catalogNumericEntry `json:"outputs"`
	Events  []catalogEventEntry   `json:"events"`
}

func runCatalog(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(catalogAddr + "/catalog")
	if err != nil {
		return fmt.Errorf("cmd: fetch catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cmd: fetch catalog: HTTP %d", resp.StatusCode)
	}

	var cat catalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&cat); err != nil {
		return fmt.Errorf("cmd: decode catalog: %w", err)
	}

	printNumericTable("Inputs", cat.Inputs)
	printNumericTable("Outputs", cat.Outputs)
	printEventTable(cat.Events)
	return nil
}

func printNumericTable(title string, entries []catalogNumericEntry) {
	fmt.Println(title + ":")
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetAutoWrapText(false)
	tw.SetHeader([]string{"Channel", "Name", "Type", "Active", "Value"})
	for _, e := range entries {
		tw.Append([]string{
			fmt.Sprintf("%d", e.Channel),
			e.Name,
			e.Type,
			fmt.Sprintf("%v", e.Active),
			fmt.Sprintf("%v", e.Value),
		})
	}
	tw.Render()
}

func printEventTable(entries []catalogEventEntry) {
	fmt.Println("Events:")
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetAutoWrapText(false)
	tw.SetHeader([]string{"Channel", "Name"})
	for _, e := range entries {
		tw.Append([]string{fmt.Sprintf("%d", e.Channel), e.Name})
	}
	tw.Render()
}
