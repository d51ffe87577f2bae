package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/arcinstitute/binseq/internal/errs"
	"github.com/arcinstitute/binseq/transform/grep"
	"github.com/spf13/pflag"
)

// isTerminal reports whether w is a character-device *os.File, the
// condition --color=auto keys off.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Grep implements `binseq grep`: pattern-match a container's records
// and write the passing ones (or, with --count, per-pattern tallies)
// to stdout.
func Grep(ctx context.Context, out io.Writer, args []string) error {
	fs := pflag.NewFlagSet("grep", pflag.ContinueOnError)
	regexPatterns := fs.StringArrayP("regex", "r", nil, "regex pattern to match (repeatable)")
	acPatterns := fs.StringArray("exact", nil, "literal (Aho-Corasick) pattern to match (repeatable)")
	fuzzyPatterns := fs.StringArray("fuzzy", nil, "fuzzy (edit-distance-bounded) pattern to match (repeatable)")
	fuzzyK := fs.Int("k", 1, "maximum edit distance for --fuzzy patterns")
	strictInexact := fs.Bool("strict-inexact", false, "reject exact (zero edit distance) hits for --fuzzy patterns")
	extended := fs.BoolP("extended", "R", false, "match against the extended (mate) sequence instead of the primary")
	either := fs.Bool("either", false, "match against whichever of primary/extended is present")
	or := fs.Bool("or", false, "OR multiple patterns together instead of requiring all to match (AND)")
	invert := fs.BoolP("invert", "v", false, "invert the match: keep records that do NOT match")
	rangeStr := fs.String("range", "", "restrict matching to a byte range \"start..end\"")
	countOnly := fs.BoolP("count", "C", false, "print per-pattern match counts instead of records")
	colorFlag := fs.String("color", "auto", "colorize matched spans: auto|always|never")
	if err := fs.Parse(args); err != nil {
		return err
	}
	positional := fs.Args()
	if len(positional) != 1 {
		return errs.E(errs.ConfigError, "grep: expected exactly one input container")
	}
	if len(*regexPatterns) == 0 && len(*acPatterns) == 0 && len(*fuzzyPatterns) == 0 {
		return errs.E(errs.ConfigError, "grep: at least one of --regex, --exact, or --fuzzy is required")
	}

	side := grep.SidePrimary
	switch {
	case *either:
		side = grep.SideEither
	case *extended:
		side = grep.SideSecondary
	}
	combine := grep.CombineAND
	if *or {
		combine = grep.CombineOR
	}
	rng, err := parseRange(*rangeStr)
	if err != nil {
		return err
	}
	colorMode, err := parseColorMode(*colorFlag)
	if err != nil {
		return err
	}

	matchers, err := buildMatchers(*regexPatterns, *acPatterns, *fuzzyPatterns, *fuzzyK, *strictInexact)
	if err != nil {
		return err
	}

	reader, err := openContainerReader(positional[0])
	if err != nil {
		return err
	}
	var src grep.Source = reader

	if *countOnly {
		return runGrepCount(out, src, side, rng, *regexPatterns, *acPatterns, *fuzzyPatterns, *fuzzyK, *strictInexact)
	}

	f, err := grep.NewFilter(matchers, side, combine, *invert, rng)
	if err != nil {
		return err
	}
	colorize := grep.ShouldColorize(colorMode, isTerminal(out))
	w := bufio.NewWriter(out)
	defer w.Flush()
	_, passed, err := grep.Run(src, f, func(r grep.Result) error {
		return writeGrepResult(w, r, side, colorize)
	})
	if err != nil {
		return err
	}
	if passed == 0 {
		return errs.E(errs.Other, "grep: no records matched")
	}
	return nil
}

func buildMatchers(regexPatterns, acPatterns, fuzzyPatterns []string, k int, strictInexact bool) ([]grep.Matcher, error) {
	var matchers []grep.Matcher
	for _, p := range regexPatterns {
		m, err := grep.NewRegexMatcher([]string{p})
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}
	if len(acPatterns) > 0 {
		matchers = append(matchers, grep.NewACMatcher(acPatterns))
	}
	if len(fuzzyPatterns) > 0 {
		matchers = append(matchers, grep.NewFuzzyMatcher(fuzzyPatterns, k, strictInexact))
	}
	return matchers, nil
}

func runGrepCount(out io.Writer, src grep.Source, side grep.Side, rng grep.Range, regexPatterns, acPatterns, fuzzyPatterns []string, k int, strictInexact bool) error {
	var patterns []string
	var newMatcher func(string) (grep.Matcher, error)
	switch {
	case len(regexPatterns) > 0:
		patterns = regexPatterns
		newMatcher = func(p string) (grep.Matcher, error) { return grep.NewRegexMatcher([]string{p}) }
	case len(acPatterns) > 0:
		patterns = acPatterns
		newMatcher = func(p string) (grep.Matcher, error) { return grep.NewACMatcher([]string{p}), nil }
	default:
		patterns = fuzzyPatterns
		newMatcher = func(p string) (grep.Matcher, error) { return grep.NewFuzzyMatcher([]string{p}, k, strictInexact), nil }
	}
	perPattern, err := grep.NewPerPatternMatchers(patterns, newMatcher)
	if err != nil {
		return err
	}
	result, err := grep.CountPatterns(src, side, rng, perPattern)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "total\t%d\n", result.Total)
	for i, p := range patterns {
		fmt.Fprintf(out, "%s\t%d\t%.4f\n", p, result.Counts[i].Matched, result.Fraction(i))
	}
	return nil
}

func writeGrepResult(w *bufio.Writer, r grep.Result, side grep.Side, colorize bool) error {
	rec := r.Record
	primary := rec.Primary
	if colorize {
		primary = grep.Colorize(primary, r.PrimaryMatches)
	}
	fmt.Fprintf(w, ">read%d\n%s\n", rec.Ordinal, primary)
	if rec.Paired() && (side == grep.SideSecondary || side == grep.SideEither) {
		secondary := rec.Extended
		if colorize {
			secondary = grep.Colorize(secondary, r.SecondaryMatches)
		}
		fmt.Fprintf(w, ">read%d/2\n%s\n", rec.Ordinal, secondary)
	}
	return nil
}

func parseRange(s string) (grep.Range, error) {
	if s == "" {
		return grep.Range{}, nil
	}
	parts := strings.SplitN(s, "..", 2)
	if len(parts) != 2 {
		return grep.Range{}, errs.E(errs.ConfigError, "grep: --range must be \"start..end\"")
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return grep.Range{}, errs.E(errs.ConfigError, "grep: invalid --range start", err)
	}
	end := 0
	if parts[1] != "" {
		end, err = strconv.Atoi(parts[1])
		if err != nil {
			return grep.Range{}, errs.E(errs.ConfigError, "grep: invalid --range end", err)
		}
	}
	return grep.Range{Start: start, End: end}, nil
}

func parseColorMode(s string) (grep.ColorMode, error) {
	switch s {
	case "auto":
		return grep.ColorAuto, nil
	case "always":
		return grep.ColorAlways, nil
	case "never":
		return grep.ColorNever, nil
	default:
		return grep.ColorAuto, errs.E(errs.ConfigError, "grep: --color must be auto, always, or never")
	}
}
