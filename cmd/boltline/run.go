package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/orneryd/boltwire/pkg/bolt"
	"github.com/orneryd/boltwire/pkg/config"
	"github.com/orneryd/boltwire/pkg/cypher"
	"github.com/orneryd/boltwire/pkg/packstream"
	"github.com/orneryd/boltwire/pkg/result"
)

var (
	keyStyle  = lipgloss.NewStyle().Bold(true)
	nullStyle = lipgloss.NewStyle().Faint(true)
)

// run dials the server described by opts (overlaying CLI flags on top of any
// config file), executes statement, and prints every returned record.
func run(cmd *cobra.Command, statement string, opts runOptions) error {
	ctx := context.Background()

	dial, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	overlayFlags(&dial, cmd, opts)

	session, err := cypher.Connect(ctx, dial.Network, dial.Address, dial.UserAgent, dial.AuthToken().Map())
	if err != nil {
		return fmt.Errorf("boltline: connect: %w", err)
	}
	defer session.Close()

	stmt, err := session.Run(ctx, statement, nil)
	if err != nil {
		return fmt.Errorf("boltline: run: %w", err)
	}

	res, err := result.New(stmt)
	if err != nil {
		return fmt.Errorf("boltline: %w", err)
	}
	defer res.Close()

	keys, err := res.Keys()
	if err != nil {
		return fmt.Errorf("boltline: %w", err)
	}

	styled := isTerminal()
	rows := 0
	err = res.ForEach(func(rec bolt.Record) error {
		printRecord(cmd, keys, rec, styled)
		rows++
		return nil
	})
	if err != nil {
		return fmt.Errorf("boltline: stream: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d rows\n", rows)
	return nil
}

// overlayFlags applies any CLI flags the caller actually set on top of the
// config loaded from file/environment; flags take the highest precedence.
func overlayFlags(dial *config.Dial, cmd *cobra.Command, opts runOptions) {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		dial.Address = opts.addr
	}
	if flags.Changed("user") {
		dial.User = opts.user
	}
	if flags.Changed("password") {
		dial.Password = opts.password
		dial.NoAuth = false
	}
}

func isTerminal() bool {
	return isatty.IsTerminal(uintptr(1)) // stdout, fd 1
}

func printRecord(cmd *cobra.Command, keys []string, rec bolt.Record, styled bool) {
	w := cmd.OutOrStdout()
	parts := make([]string, len(rec.Fields))
	for i, f := range rec.Fields {
		name := ""
		if i < len(keys) {
			name = keys[i]
		}
		parts[i] = formatField(name, f, styled)
	}
	fmt.Fprintln(w, strings.Join(parts, "  "))
}

func formatField(name string, v packstream.Value, styled bool) string {
	rendered := renderValue(v)
	if !styled {
		return fmt.Sprintf("%s=%#v", name, rendered)
	}
	if v.IsNull() {
		rendered = nullStyle.Render(rendered)
	}
	return keyStyle.Render(name+":") + " " + rendered
}

func renderValue(v packstream.Value) string {
	switch v.Kind() {
	case packstream.KindNull:
		return "null"
	case packstream.KindBoolean:
		b, _ := v.Bool()
		return fmt.Sprintf("%t", b)
	case packstream.KindInteger:
		i, _ := v.Int()
		return fmt.Sprintf("%d", i)
	case packstream.KindFloat:
		f, _ := v.Float()
		return fmt.Sprintf("%g", f)
	case packstream.KindString:
		s, _ := v.Str()
		return s
	case packstream.KindList:
		items, _ := v.List()
		rendered := make([]string, len(items))
		for i, item := range items {
			rendered[i] = renderValue(item)
		}
		return "[" + strings.Join(rendered, ", ") + "]"
	case packstream.KindMap:
		m, _ := v.Map()
		return renderMap(m)
	case packstream.KindStructure:
		if node, ok := v.AsNode(); ok {
			return fmt.Sprintf("(%d:%s %s)", node.ID, strings.Join(node.Labels, ":"), renderMap(node.Properties))
		}
		if rel, ok := v.AsRelationship(); ok {
			return fmt.Sprintf("[%d:%s]", rel.ID, rel.Type)
		}
		return "<structure>"
	default:
		return "<unknown>"
	}
}

func renderMap(m map[string]packstream.Value) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + renderValue(m[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
