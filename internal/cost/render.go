package cost

import (
	"fmt"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Render formats the report as a human-readable table.
func (r Report) Render(colored bool) string {
	t := table.NewWriter()
	if colored {
		t.SetStyle(table.StyleColoredDark)
	} else {
		t.SetStyle(table.StyleLight)
	}

	t.AppendHeader(table.Row{"Bucket", "Amount"})
	if r.CacheHit {
		t.AppendRow(table.Row{"cache hit", "yes"})
	}
	t.AppendRows([]table.Row{
		{"script generation", fmt.Sprintf("$%.4f", r.ScriptCost)},
		{"keyframe generation", fmt.Sprintf("$%.4f", r.KeyframeCost)},
		{"video generation", fmt.Sprintf("$%.4f", r.VideoCost)},
		{"retries", fmt.Sprintf("$%.4f", r.RetryCost)},
		{"style anchor", fmt.Sprintf("$%.4f", r.AnchorCost)},
	})
	t.AppendFooter(table.Row{"total", fmt.Sprintf("$%.4f", r.TotalCost)})

	calls := table.NewWriter()
	if colored {
		calls.SetStyle(table.StyleColoredDark)
	} else {
		calls.SetStyle(table.StyleLight)
	}
	calls.AppendHeader(table.Row{"Provider", "Calls"})
	calls.AppendRows([]table.Row{
		{"script", r.ScriptCalls},
		{"keyframe", r.KeyframeCalls},
		{"video", r.VideoCalls},
	})

	out := t.Render() + "\n" + calls.Render()
	if len(r.RetriesByScene) > 0 {
		scenes := make([]int, 0, len(r.RetriesByScene))
		for scene := range r.RetriesByScene {
			scenes = append(scenes, scene)
		}
		sort.Ints(scenes)
		retries := table.NewWriter()
		if colored {
			retries.SetStyle(table.StyleColoredDark)
		} else {
			retries.SetStyle(table.StyleLight)
		}
		retries.AppendHeader(table.Row{"Scene", "Retries"})
		for _, scene := range scenes {
			retries.AppendRow(table.Row{scene, r.RetriesByScene[scene]})
		}
		out += "\n" + retries.Render()
	}
	out += fmt.Sprintf("\nelapsed: %s\n", r.Elapsed.Round(100*time.Millisecond))
	return out
}
