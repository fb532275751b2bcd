package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pollux/enigma/internal/enigma"
)

func newRotorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotors",
		Short: "List the rotor and reflector wirings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			styled := isTerminal(out)
			fmt.Fprintln(out, "Rotors:")
			for _, name := range enigma.RotorNames() {
				def, err := enigma.LookupRotor(name)
				if err != nil {
					return err
				}
				notches := make([]string, len(def.Notches))
				for i, n := range def.Notches {
					notches[i] = string(rune('A' + n))
				}
				fmt.Fprintf(out, "  %-5s %s  %s\n", name, def.Wiring,
					muted("notch "+strings.Join(notches, ","), styled))
			}
			fmt.Fprintln(out, "Reflectors:")
			for _, name := range enigma.ReflectorNames() {
				def, err := enigma.LookupReflector(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %-5s %s\n", name, def.Wiring)
			}
			return nil
		},
	}
}
