package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	apitypes "github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/common"
	"github.com/altheahfy/Rephrase-Project02-sub007/pkg/types/grammar"
)

// PrintResult writes data to stdout in the selected output format.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format, noColor := "json", true
	if c, err := GetCLIContext(cmd); err == nil {
		format, noColor = c.OutputFormat, c.NoColor
	}
	out := cmd.OutOrStdout()
	color.NoColor = color.NoColor || noColor

	switch format {
	case "json":
		return printJSON(out, data)
	case "yaml":
		return printYAML(out, data)
	case "table":
		return printTable(out, data)
	default:
		return printText(out, data)
	}
}

func printJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// printYAML goes through JSON so both formats share one field layout.
func printYAML(w io.Writer, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

var (
	slotLabel = color.New(color.FgCyan, color.Bold).SprintFunc()
	subLabel  = color.New(color.FgBlue).SprintFunc()
)

func printText(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case *grammar.OrderedResult:
		writeResultText(w, v, "")
	case *apitypes.BatchAnalyzeResponse:
		for _, item := range v.Items {
			fmt.Fprintf(w, "[%d] %s %s\n", item.Index, statusString(item.Status), item.Sentence)
			if item.Result != nil {
				writeResultText(w, item.Result, "    ")
			}
			if item.Error != nil {
				fmt.Fprintf(w, "    %s: %s\n", item.Error.Code, item.Error.Message)
			}
		}
		fmt.Fprintf(w, "%d sentences, %d succeeded, %d failed\n", v.Total, v.Succeeded, v.Failed)
	case *apitypes.HandlerList:
		for _, h := range v.Handlers {
			fmt.Fprintf(w, "%2d  %-16s %s\n", h.Priority, h.ID, activeString(h.Active))
		}
	case string:
		fmt.Fprintln(w, v)
	default:
		fmt.Fprintf(w, "%+v\n", v)
	}
	return nil
}

func writeResultText(w io.Writer, r *grammar.OrderedResult, indent string) {
	for _, v := range r.Ordered() {
		if v.Sub != "" {
			if v.Text == "" {
				continue
			}
			fmt.Fprintf(w, "%s  %s %s\n", indent, subLabel(fmt.Sprintf("%-8s", v.Sub)), v.Text)
			continue
		}
		text := v.Text
		if _, decomposed := r.SubSlots[v.Parent]; decomposed && text == "" {
			text = "(" + string(r.SubSlots[v.Parent].Kind) + ")"
		}
		fmt.Fprintf(w, "%s%s %s\n", indent, slotLabel(fmt.Sprintf("%-4s", v.Parent)), text)
	}
}

func printTable(w io.Writer, data interface{}) error {
	table := tablewriter.NewWriter(w)
	switch v := data.(type) {
	case *grammar.OrderedResult:
		table.Header("Order", "Slot", "Sub-slot", "Text")
		for _, o := range v.Ordered() {
			if err := table.Append([]string{strconv.Itoa(o.Position), string(o.Parent), string(o.Sub), o.Text}); err != nil {
				return err
			}
		}
	case *apitypes.BatchAnalyzeResponse:
		table.Header("#", "Status", "Sentence", "Slots")
		for _, item := range v.Items {
			if err := table.Append([]string{strconv.Itoa(item.Index), statusString(item.Status), item.Sentence, batchCell(item)}); err != nil {
				return err
			}
		}
	case *apitypes.HandlerList:
		table.Header("Priority", "Handler", "State")
		for _, h := range v.Handlers {
			if err := table.Append([]string{strconv.Itoa(h.Priority), h.ID, activeString(h.Active)}); err != nil {
				return err
			}
		}
	default:
		return printText(w, data)
	}
	return table.Render()
}

func batchCell(item apitypes.BatchItem) string {
	if item.Error != nil {
		return item.Error.Code + " " + item.Error.Message
	}
	if item.Result == nil {
		return ""
	}
	parts := make([]string, 0, len(item.Result.Order))
	for _, o := range item.Result.Ordered() {
		if o.Sub == "" && o.Text != "" {
			parts = append(parts, string(o.Parent)+"="+o.Text)
		}
	}
	return strings.Join(parts, " | ")
}

func statusString(s string) string {
	if s == "SUCCESS" {
		return color.GreenString(s)
	}
	return color.RedString(s)
}

func activeString(active bool) string {
	if active {
		return color.GreenString("active")
	}
	return color.YellowString("inactive")
}

// PrintError writes a formatted error message to stderr.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", color.RedString("Error:"), err.Error())
}

//Personal.AI order the ending
