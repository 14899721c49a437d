package sim

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// WriteReport renders r as an aligned plain-text summary.
func WriteReport(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "boss\t%s (%s)\n", r.Boss, r.EncounterID)
	fmt.Fprintf(tw, "outcome\t%s after %s\n", r.Outcome, r.Duration)
	fmt.Fprintf(tw, "boss health\t%.1f\n", r.BossHealth)
	fmt.Fprintf(tw, "target health\t%.1f\n", r.TargetHealth)
	fmt.Fprintf(tw, "phase\t%d\n", r.Phase)
	for _, pc := range r.PhaseChanges {
		fmt.Fprintf(tw, "  phase %d\tat %s, unlocked %v\n", pc.Phase, pc.At, pc.Unlocked)
	}
	fmt.Fprintf(tw, "attacks\t%d resolutions, %d hits, %.1f damage taken\n", r.Resolutions, r.Hits, r.DamageTaken)

	ids := make([]string, 0, len(r.Attacks))
	for id := range r.Attacks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(tw, "  %s\t%d\n", id, r.Attacks[id])
	}
	fmt.Fprintf(tw, "damage to boss\t%.1f raw\n", r.DamageToBoss)
	fmt.Fprintf(tw, "summon hits\t%d\n", r.SummonHits)
	if r.Death != nil {
		fmt.Fprintf(tw, "reward\t%d currency\n", r.Death.Reward.Currency)
		for _, it := range r.Death.Reward.Items {
			fmt.Fprintf(tw, "  %s\tx%d\n", it.ItemID, it.Quantity)
		}
	}
	return tw.Flush()
}
