package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seiflotfy/genpress"
	"github.com/seiflotfy/genpress/descriptor"
	"github.com/seiflotfy/genpress/store"
)

var (
	outputPath string
	originName string
)

var compressCmd = &cobra.Command{
	Use:   "compress [file]",
	Short: "Compress a file (or - for stdin) into an envelope",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompress,
}

var decompressCmd = &cobra.Command{
	Use:   "decompress [envelope]",
	Short: "Regenerate the original content of an envelope",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecompress,
}

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Show the selected model and every candidate for a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var rangeCmd = &cobra.Command{
	Use:   "range [envelope] [start] [end]",
	Short: "Regenerate the values in [start, end) of an envelope",
	Args:  cobra.ExactArgs(3),
	RunE:  runRange,
}

var putCmd = &cobra.Command{
	Use:   "put [envelope]",
	Short: "Store an envelope and print its id",
	Args:  cobra.ExactArgs(1),
	RunE:  runPut,
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Fetch a stored envelope",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored envelopes",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	for _, c := range []*cobra.Command{compressCmd, decompressCmd, rangeCmd, getCmd} {
		c.Flags().StringVarP(&outputPath, "output", "o", "-", "output path (- for stdout)")
	}
	for _, c := range []*cobra.Command{compressCmd, infoCmd} {
		c.Flags().StringVar(&originName, "origin", genpress.OriginBytes, "input interpretation (bytes, text, ints)")
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// toSequence converts raw input according to origin.
func toSequence(origin string, data []byte) ([]int64, error) {
	switch origin {
	case genpress.OriginBytes, genpress.OriginText:
		return genpress.FromBytes(data), nil
	case genpress.OriginInts:
		fields := strings.Fields(string(data))
		out := make([]int64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse value %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown origin %q", origin)
	}
}

// fromSequence converts regenerated values back according to origin.
func fromSequence(origin string, vals []int64) ([]byte, error) {
	switch origin {
	case genpress.OriginText:
		s, err := genpress.ToString(vals)
		return []byte(s), err
	case genpress.OriginInts:
		var buf bytes.Buffer
		for _, v := range vals {
			buf.WriteString(strconv.FormatInt(v, 10))
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	default:
		return genpress.ToBytes(vals)
	}
}

func readEnvelope(path string) (*descriptor.Envelope, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	env := &descriptor.Envelope{}
	if _, err := env.ReadFrom(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return env, nil
}

func encodeEnvelope(env *descriptor.Envelope) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := env.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func runCompress(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return err
	}
	seq, err := toSequence(originName, data)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	env, res, err := engine.CompressEnvelope(originName, seq)
	if err != nil {
		return err
	}
	out, err := encodeEnvelope(env)
	if err != nil {
		return err
	}
	logger.Info("envelope written",
		zap.Stringer("kind", res.Descriptor.Kind),
		zap.Int("input_bytes", len(data)),
		zap.Int("envelope_bytes", len(out)),
		zap.Bool("exact", res.Exact))
	return writeOutput(outputPath, out)
}

func runDecompress(cmd *cobra.Command, args []string) error {
	env, err := readEnvelope(args[0])
	if err != nil {
		return err
	}
	vals, err := genpress.Open(env)
	if err != nil {
		return err
	}
	out, err := fromSequence(env.Origin, vals)
	if err != nil {
		return err
	}
	return writeOutput(outputPath, out)
}

func runInfo(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return err
	}
	seq, err := toSequence(originName, data)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	info := engine.CompressInfo(seq)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "kind:\t%s\n", info.Kind)
	fmt.Fprintf(w, "length:\t%d\n", info.Length)
	fmt.Fprintf(w, "size:\t%d\n", info.DescriptorSize)
	fmt.Fprintf(w, "ratio:\t%.4f\n", info.Ratio)
	fmt.Fprintf(w, "exact:\t%t\n", info.Exact)
	fmt.Fprintf(w, "layers:\t%d\n", info.Layers)
	if info.Segments > 0 {
		fmt.Fprintf(w, "segments:\t%d\n", info.Segments)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CANDIDATE\tSIZE\tERROR\tEXACT")
	for _, c := range info.Candidates {
		fmt.Fprintf(w, "%s\t%d\t%g\t%t\n", c.Kind, c.Size, c.Error, c.Exact)
	}
	return w.Flush()
}

func runRange(cmd *cobra.Command, args []string) error {
	env, err := readEnvelope(args[0])
	if err != nil {
		return err
	}
	start, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}
	end, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid end: %w", err)
	}

	var vals []int64
	if env.Descriptor.Kind == descriptor.KindSegmentIndex {
		idx, err := genpress.SegmentIndexFrom(env.Descriptor)
		if err != nil {
			return err
		}
		engine, err := newEngine()
		if err != nil {
			return err
		}
		reader, err := genpress.NewSegmentReader(idx, engine.Config().SegmentCache)
		if err != nil {
			return err
		}
		vals, err = reader.ReadRange(start, end)
		if err != nil {
			return err
		}
	} else {
		all, err := genpress.Open(env)
		if err != nil {
			return err
		}
		if start < 0 || end < start || end > len(all) {
			return fmt.Errorf("%w: [%d, %d) of %d", genpress.ErrRange, start, end, len(all))
		}
		vals = all[start:end]
	}

	out, err := fromSequence(env.Origin, vals)
	if err != nil {
		return err
	}
	return writeOutput(outputPath, out)
}

func openStore(ctx context.Context) (store.Store, error) {
	s, err := store.NewStore(storeKind, storePath)
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func runPut(cmd *cobra.Command, args []string) error {
	env, err := readEnvelope(args[0])
	if err != nil {
		return err
	}
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(s)

	id, err := s.Put(cmd.Context(), env)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(s)

	env, ok, err := s.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("envelope %s not found", args[0])
	}
	out, err := encodeEnvelope(env)
	if err != nil {
		return err
	}
	return writeOutput(outputPath, out)
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer store.CloseIfSupported(s)

	entries, err := s.List(cmd.Context())
	if err != nil {
		return err
	}
	w := bufio.NewWriter(cmd.OutOrStdout())
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n", e.ID, e.Kind, e.Length, e.Origin, e.Bytes)
	}
	return w.Flush()
}
