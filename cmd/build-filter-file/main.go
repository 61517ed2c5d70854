// Command build-filter-file reads a sorted stream of "SHA1:count" lines and
// emits a single file holding one XorPlus8 filter per hash-prefix segment,
// followed by a trailer of segment byte offsets (spec.md §6).
package main

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tidesign/sieve/xorfilter"
)

const defaultSegmentBits = 4

func main() {
	var segmentBits int

	rootCmd := &cobra.Command{
		Use:   "build-filter-file",
		Short: "Build a segmented XorPlus8 filter file from a sorted SHA1:count stream",
		Long: `build-filter-file reads "SHA1:count" lines from stdin, sorted
ascending by hash, buckets them into 2^segment-bits segments by the top
bits of the hash, and writes one XorPlus8-serialized filter per segment to
stdout, followed by a trailer of segment byte offsets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(os.Stdin, os.Stdout, uint(segmentBits))
		},
	}

	rootCmd.Flags().IntVar(&segmentBits, "segment-bits", defaultSegmentBits,
		"number of leading hash bits used to bucket keys into segments")

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("build-filter-file: %v", err)
	}
}

// run implements the CLI's core logic against explicit reader/writer
// arguments so it can be exercised without a real stdin/stdout.
func run(in io.Reader, out io.Writer, segmentBits uint) error {
	keys, err := readSortedKeys(in)
	if err != nil {
		return err
	}

	numSegments := uint64(1) << segmentBits
	buckets := make([][]uint64, numSegments)
	for _, k := range keys {
		seg := k >> (64 - segmentBits)
		buckets[seg] = append(buckets[seg], k)
	}

	segmentStarts := make([]uint64, numSegments)
	var offset uint64
	for seg, bucketKeys := range buckets {
		segmentStarts[seg] = offset
		if len(bucketKeys) == 0 {
			continue
		}
		f, err := xorfilter.BuildXorPlus8(bucketKeys)
		if err != nil {
			return fmt.Errorf("segment %d: %w", seg, err)
		}
		buf := f.Serialize()
		n, err := out.Write(buf)
		if err != nil {
			return fmt.Errorf("segment %d: %w", seg, err)
		}
		offset += uint64(n)
	}

	trailer := make([]byte, int(numSegments)*8)
	for i, start := range segmentStarts {
		binary.BigEndian.PutUint64(trailer[i*8:i*8+8], start)
	}
	if _, err := out.Write(trailer); err != nil {
		return fmt.Errorf("segment trailer: %w", err)
	}
	return nil
}

// readSortedKeys parses "SHA1:count" lines, taking the first 16 hex
// characters of each SHA1 as a 64-bit key. count is validated for shape but
// otherwise unused: the filter only needs the key. Input must already be
// sorted ascending by key with no duplicates.
func readSortedKeys(in io.Reader) ([]uint64, error) {
	scanner := bufio.NewScanner(in)
	var keys []uint64
	var prev uint64
	haveZeroth := false

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		key, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		if haveZeroth {
			if key == prev {
				return nil, fmt.Errorf("duplicate hash: %016x", key)
			}
			if key < prev {
				return nil, fmt.Errorf("input not sorted ascending: %016x after %016x", key, prev)
			}
		}
		keys = append(keys, key)
		prev = key
		haveZeroth = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return keys, nil
}

func parseLine(line string) (uint64, error) {
	sha1, countStr, ok := strings.Cut(line, ":")
	if !ok {
		return 0, fmt.Errorf("malformed line %q: expected SHA1:count", line)
	}
	if len(sha1) < 16 {
		return 0, fmt.Errorf("malformed line %q: hash shorter than 16 hex digits", line)
	}
	if _, err := hex.DecodeString(sha1); err != nil {
		return 0, fmt.Errorf("malformed line %q: %w", line, err)
	}
	key, err := strconv.ParseUint(sha1[:16], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed line %q: %w", line, err)
	}
	if _, err := strconv.ParseUint(countStr, 10, 64); err != nil {
		return 0, fmt.Errorf("malformed line %q: bad count: %w", line, err)
	}
	return key, nil
}
