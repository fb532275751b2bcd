package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pollux/enigma/internal/enigma"
)

type encryptFlags struct {
	rotors    string
	reflector string
	positions string
	rings     string
	pos       [3]int // 1-26
	ring      [3]int // 1-26
	plugboard string
}

func newEncryptCmd(a *app) *cobra.Command {
	f := &encryptFlags{}
	cmd := &cobra.Command{
		Use:     "encrypt [text...]",
		Aliases: []string{"decrypt"},
		Short:   "Encipher text, or each line of stdin when no text is given",
		Long: `Encipher text on a three-rotor Enigma. The machine is its own inverse,
so the same settings decrypt. Letters are upper-cased; anything else passes
through unchanged and does not step the rotors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := f.machine(cmd, a)
			if err != nil {
				return err
			}
			pb := m.Plugboard()
			a.logger.Debug("machine configured",
				"positions", enigma.FormatPositions(m.Positions()),
				"plugboard", pb.Pairs(),
			)
			if len(args) > 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), m.Encrypt(strings.Join(args, " ")))
				return err
			}
			return processIO(m, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.rotors, "rotors", "I,II,III", "rotor selection, left to right (e.g. I,II,III)")
	fl.StringVar(&f.reflector, "reflector", "B", "reflector type (B or C)")
	fl.StringVar(&f.positions, "positions", "AAA", "start positions as window letters, left to right")
	fl.StringVar(&f.rings, "rings", "AAA", "ring settings as letters, left to right")
	fl.IntVar(&f.pos[0], "r1", 1, "position of the left rotor (1-26)")
	fl.IntVar(&f.pos[1], "r2", 1, "position of the middle rotor (1-26)")
	fl.IntVar(&f.pos[2], "r3", 1, "position of the right rotor (1-26)")
	fl.IntVar(&f.ring[0], "ring1", 1, "ring setting of the left rotor (1-26)")
	fl.IntVar(&f.ring[1], "ring2", 1, "ring setting of the middle rotor (1-26)")
	fl.IntVar(&f.ring[2], "ring3", 1, "ring setting of the right rotor (1-26)")
	fl.StringVarP(&f.plugboard, "plugboard", "p", "", "plugboard pairs (e.g. \"AB CD EF\")")
	return cmd
}

// machine builds the machine from the configuration file, overridden by
// whichever flags were given.
func (f *encryptFlags) machine(cmd *cobra.Command, a *app) (*enigma.Machine, error) {
	mc := a.cfg.Machine
	fl := cmd.Flags()

	rotors := mc.Rotors
	if fl.Changed("rotors") {
		rotors = splitList(f.rotors)
	}
	if len(rotors) != 3 {
		return nil, fmt.Errorf("exactly three rotors must be specified, got %d", len(rotors))
	}
	s := enigma.Settings{
		Rotors:    [3]string{rotors[0], rotors[1], rotors[2]},
		Reflector: mc.Reflector,
		Plugboard: mc.Plugboard,
	}
	if fl.Changed("reflector") {
		s.Reflector = strings.ToUpper(f.reflector)
	}
	if fl.Changed("plugboard") {
		s.Plugboard = strings.Fields(f.plugboard)
	}

	var err error
	if s.Positions, err = letterOrNumbered(fl.Changed("positions"), f.positions, mc.Positions, f.pos, fl.Changed, "r1", "r2", "r3"); err != nil {
		return nil, err
	}
	if s.Rings, err = letterOrNumbered(fl.Changed("rings"), f.rings, mc.Rings, f.ring, fl.Changed, "ring1", "ring2", "ring3"); err != nil {
		return nil, err
	}
	return enigma.New(s)
}

// letterOrNumbered resolves one set of three settings. A letter flag wins,
// then any of the 1-based numbered flags, then the configured letters.
func letterOrNumbered(letterSet bool, letters, configured string, numbered [3]int, changed func(string) bool, names ...string) ([3]int, error) {
	if letterSet {
		return enigma.ParsePositions(letters)
	}
	out, err := enigma.ParsePositions(configured)
	if err != nil {
		return out, err
	}
	for i, name := range names {
		if !changed(name) {
			continue
		}
		if numbered[i] < 1 || numbered[i] > 26 {
			return out, fmt.Errorf("%w: --%s must be between 1 and 26", enigma.ErrInvalidPosition, name)
		}
		out[i] = numbered[i] - 1
	}
	return out, nil
}

// processIO enciphers reader line by line. The machine keeps stepping from
// one line to the next.
func processIO(m *enigma.Machine, reader io.Reader, writer io.Writer) error {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		if _, err := fmt.Fprintln(writer, m.Encrypt(scanner.Text())); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	}
	return scanner.Err()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '-' }) {
		out = append(out, strings.ToUpper(part))
	}
	return out
}
