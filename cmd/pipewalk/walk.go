package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/pipewalk/pipewalk/internal/session"
	"github.com/pipewalk/pipewalk/layout"
	"github.com/pipewalk/pipewalk/sim"
)

func newWalkCmd() *cobra.Command {
	var (
		pipelinePath string
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "walk",
		Short: "Run the whole pipeline non-interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			var document []byte
			if pipelinePath != "" {
				data, err := os.ReadFile(pipelinePath)
				if err != nil {
					return err
				}
				document = data
			}

			manager := session.NewManager(logr.Discard(), strict)
			sess, usedDefault, err := manager.Create(document, nil)
			if err != nil {
				return err
			}
			defer manager.Destroy(sess.ID)

			out := cmd.OutOrStdout()
			if usedDefault && document != nil {
				fmt.Fprintln(out, "pipeline document was not usable; using the default pipeline")
			}

			printView(out, sess.View())
			fmt.Fprintln(out)

			for {
				stage, advanced := sess.Advance()
				if !advanced {
					break
				}
				logLines := sess.Log()
				fmt.Fprintf(out, "stage %d (%s): %s\n", int(stage), stage, logLines[len(logLines)-1])
				printRecords(out, sess.Records())
				printView(out, sess.View())
				fmt.Fprintln(out)
			}

			fmt.Fprintln(out, "metrics:")
			for _, name := range sim.Metrics() {
				value, err := sess.Evaluate(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %s: %g\n", name, value)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&pipelinePath, "pipeline", "p", "", "path to a pipeline document (JSON); default pipeline when omitted")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject unusable pipeline documents instead of falling back")

	return cmd
}

func printView(out io.Writer, view layout.View) {
	nodes := append([]layout.NodeView(nil), view.Nodes...)
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].X != nodes[j].X {
			return nodes[i].X < nodes[j].X
		}
		return nodes[i].Y < nodes[j].Y
	})

	fmt.Fprintln(out, "graph:")
	for _, n := range nodes {
		marker := " "
		if n.Highlighted {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %s (%s)\n", marker, n.ID, n.Type)
	}
	for _, e := range view.Edges {
		fmt.Fprintf(out, "    %s -> %s\n", e.From, e.To)
	}
}

func printRecords(out io.Writer, records []sim.Record) {
	fmt.Fprintln(out, "records:")
	for _, r := range records {
		fmt.Fprintf(out, "  (%s, %g)\n", r.Key, r.Value)
	}
}
