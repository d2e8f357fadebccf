// Command bbpe is a small CLI wrapper around the bbpe package: it loads
// a HuggingFace-compatible tokenizer.json and encodes or decodes text
// against it. It is an ambient convenience, not part of the library's
// correctness contract — the bbpe package is usable standalone.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-logr/logr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/nwdxlgzs/bbpe-go/bbpe"
)

var (
	tokenizerPath string
	showOffsets   bool

	idStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	offsetStyle = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	klog.SetLogger(logr.New(zerologKlogSink{}))

	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("bbpe")
		os.Exit(1)
	}
}

// newRootCommand builds the command tree. Split out of main so tests can
// exercise it directly with SetArgs/SetOut instead of spawning a process.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bbpe",
		Short: "Encode and decode text against a HuggingFace-style tokenizer.json",
	}
	root.PersistentFlags().StringVarP(&tokenizerPath, "tokenizer", "t", "", "path to tokenizer.json (required)")
	_ = root.MarkPersistentFlagRequired("tokenizer")

	encodeCmd := &cobra.Command{
		Use:   "encode [text]",
		Short: "Encode text into token ids",
		Args:  cobra.ExactArgs(1),
		RunE:  runEncode,
	}
	encodeCmd.Flags().BoolVar(&showOffsets, "offsets", false, "also print the byte span each id was derived from")

	decodeCmd := &cobra.Command{
		Use:   "decode [id...]",
		Short: "Decode token ids back into text",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runDecode,
	}

	root.AddCommand(encodeCmd, decodeCmd)
	return root
}

func loadTokenizer() (*bbpe.Tokenizer, error) {
	data, err := os.ReadFile(tokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", tokenizerPath, err)
	}
	tok, err := bbpe.Load(data)
	if err != nil {
		if code, ok := bbpe.CodeOf(err); ok {
			return nil, fmt.Errorf("loading %s: %w (code %s)", tokenizerPath, err, code)
		}
		return nil, fmt.Errorf("loading %s: %w", tokenizerPath, err)
	}
	log.Info().Int("vocab_size", tok.VocabSize()).Str("path", tokenizerPath).Msg("tokenizer loaded")
	return tok, nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	tok, err := loadTokenizer()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if showOffsets {
		result, err := tok.EncodeWithOffsets(args[0])
		if err != nil {
			return printCodedError(cmd, err)
		}
		for i, id := range result.IDs {
			off := result.Offsets[i]
			fmt.Fprintf(out, "%s %s\n", idStyle.Render(strconv.Itoa(int(id))), offsetStyle.Render(fmt.Sprintf("[%d:%d)", off.Start, off.End)))
		}
		return nil
	}

	ids, err := tok.Encode(args[0])
	if err != nil {
		return printCodedError(cmd, err)
	}
	for _, id := range ids {
		fmt.Fprintln(out, idStyle.Render(strconv.Itoa(int(id))))
	}
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	tok, err := loadTokenizer()
	if err != nil {
		return err
	}

	ids := make([]int32, len(args))
	for i, a := range args {
		n, err := strconv.ParseInt(a, 10, 32)
		if err != nil {
			return fmt.Errorf("argument %q is not a valid token id: %w", a, err)
		}
		ids[i] = int32(n)
	}

	text, err := tok.Decode(ids)
	if err != nil {
		return printCodedError(cmd, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}

func printCodedError(cmd *cobra.Command, err error) error {
	out := cmd.ErrOrStderr()
	if code, ok := bbpe.CodeOf(err); ok {
		fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("%s: %v", code, err)))
		return err
	}
	fmt.Fprintln(out, errorStyle.Render(err.Error()))
	return err
}

// zerologKlogSink routes the library's internal klog warnings through
// the same console writer the CLI uses for its own logging, instead of
// klog's default stderr writer firing on an unrelated format.
type zerologKlogSink struct{}

func (zerologKlogSink) Init(info logr.RuntimeInfo) {}

func (zerologKlogSink) Enabled(level int) bool { return level <= 2 }

func (zerologKlogSink) Info(level int, msg string, keysAndValues ...any) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (zerologKlogSink) Error(err error, msg string, keysAndValues ...any) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

func (s zerologKlogSink) WithValues(keysAndValues ...any) logr.LogSink {
	return s
}

func (s zerologKlogSink) WithName(name string) logr.LogSink {
	return s
}
