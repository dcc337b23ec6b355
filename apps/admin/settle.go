package main

import (
	"context"

	"github.com/trezcool/teampoints/core"
	"github.com/trezcool/teampoints/core/points"
)

func (cli *commandLine) settle(ctx context.Context, rawEventID string) error {
	eventID, ok := core.ParseID(rawEventID)
	if !ok {
		return points.ErrEventNotFound
	}
	factors, err := cli.points.Resettle(ctx, eventID)
	if err != nil {
		return err
	}

	cli.printf("event %s settled: %d scaling factors\n", eventID, len(factors))
	for _, sf := range factors {
		cli.printf("  %s  received=%-4d team=%-3d factor=%.3f\n", sf.StudentID, sf.TotalReceived, sf.TeamSize, sf.ScalingFactor)
	}
	return nil
}
