package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newProposeCmd(flags *globalFlags) *cobra.Command {
	var (
		seatID     int64
		begin, end string
	)

	c := &cobra.Command{
		Use:   "propose",
		Short: "Propose a reservation for a seat",
		Example: "  deskctl propose --email ana@example.com --seat 3 \\\n" +
			"    --begin 2026-03-02T09:00:00+01:00 --end 2026-03-02T11:00:00+01:00",
		RunE: func(cmd *cobra.Command, _ []string) error {
			beginTime, err := time.Parse(time.RFC3339, begin)
			if err != nil {
				return fmt.Errorf("invalid --begin: %w", err)
			}
			endTime, err := time.Parse(time.RFC3339, end)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}

			rc, err := flags.client()
			if err != nil {
				return err
			}
			reservation, err := rc.Propose(cmd.Context(), seatID, beginTime, endTime)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), reservation)
		},
	}

	c.Flags().Int64Var(&seatID, "seat", 0, "seat id")
	c.Flags().StringVar(&begin, "begin", "", "begin time, RFC 3339")
	c.Flags().StringVar(&end, "end", "", "end time, RFC 3339")
	_ = c.MarkFlagRequired("seat")
	_ = c.MarkFlagRequired("begin")
	_ = c.MarkFlagRequired("end")
	return c
}

type pageFlags struct {
	limit  int
	offset int64
}

func (p *pageFlags) register(c *cobra.Command) {
	c.Flags().IntVar(&p.limit, "limit", 10, "page size (max 100)")
	c.Flags().Int64Var(&p.offset, "offset", 0, "number of reservations to skip")
}

func newListCmd(flags *globalFlags) *cobra.Command {
	page := &pageFlags{}
	c := &cobra.Command{
		Use:   "list",
		Short: "List all reservations ordered by begin time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := flags.client()
			if err != nil {
				return err
			}
			result, err := rc.List(cmd.Context(), page.limit, page.offset)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	page.register(c)
	return c
}

func newMineCmd(flags *globalFlags) *cobra.Command {
	page := &pageFlags{}
	c := &cobra.Command{
		Use:   "mine",
		Short: "List the caller's reservations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := flags.client()
			if err != nil {
				return err
			}
			result, err := rc.Mine(cmd.Context(), page.limit, page.offset)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	page.register(c)
	return c
}

func newDeleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Cancel a reservation (owner or admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return fmt.Errorf("invalid reservation id %q", args[0])
			}

			rc, err := flags.client()
			if err != nil {
				return err
			}
			if err := rc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted reservation %d\n", id)
			return nil
		},
	}
}
