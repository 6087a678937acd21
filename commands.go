// Copyright 2018 Fabian Wenzelmann
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package photomosaic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

var (
	// ErrCmdSyntaxErr is returned by a CommandFunc if the syntax for the command
	// is invalid.
	ErrCmdSyntaxErr = errors.New("Invalid command syntax")
)

// DefaultCachePath is the cache used by the images command if no cache is
// given. It is relative to the working directory.
const DefaultCachePath = "dataset/cache"

// ExecutorState is the state during a CommandHandler execution, see that
// type for more details of the workflow.
//
// The variables in the state are shared among the executions of the command
// functions.
type ExecutorState struct {
	// WorkingDir is the current directory. It must always be an absolute path.
	WorkingDir string

	// Index contains the candidate images, nil if no images were loaded.
	Index *CandidateIndex

	// NumRoutines is the number of go routines used for creating the index
	// and the mosaic.
	NumRoutines int

	// Verbose is true if detailed output should be generated.
	Verbose bool

	// In is the source to read commands from (line by line).
	In io.Reader

	// Out is used to write state information.
	Out io.Writer

	// Resizer is used to scale candidates.
	Resizer ImageResizer

	// CacheSize is the size of the image cache during mosaic composition.
	CacheSize int

	// ColorMetric is the name of the color metric used for "color" mosaics.
	ColorMetric string

	// Reload forces the images command to ignore existing caches.
	Reload bool
}

// NewExecutorState returns a state with default values reading commands from
// in. The working directory is the current directory.
// This method might panic if something with filepath is wrong, this should
// however usually not be the case.
func NewExecutorState(in io.Reader, out io.Writer) *ExecutorState {
	initialRoutines := runtime.NumCPU()
	if initialRoutines <= 0 {
		initialRoutines = 4
	}
	dir, err := filepath.Abs(".")
	if err != nil {
		panic(fmt.Errorf("Unable to retrieve path: %s", err.Error()))
	}
	return &ExecutorState{
		WorkingDir:  dir,
		NumRoutines: initialRoutines,
		Verbose:     true,
		In:          in,
		Out:         out,
		Resizer:     DefaultResizer,
		CacheSize:   ImageCacheSize,
		ColorMetric: DefaultColorMetric,
	}
}

// GetPath returns the absolute path given some other path.
// Absolute paths are returned as they are, relative paths are joined with the
// working directory.
//
// The home directory can be used like on Unix: ~/Pictures is the Pictures
// directory in the home directory of the user.
func (state *ExecutorState) GetPath(path string) (string, error) {
	res, pathErr := homedir.Expand(path)
	if pathErr != nil {
		return "", pathErr
	}
	if !filepath.IsAbs(res) {
		res = filepath.Join(state.WorkingDir, res)
	}
	return filepath.Abs(res)
}

// Options returns the mosaic options given by the state.
func (state *ExecutorState) Options() Options {
	opts := DefaultOptions()
	opts.NumRoutines = state.NumRoutines
	opts.Resizer = state.Resizer
	opts.CacheSize = state.CacheSize
	opts.ColorMetric = state.ColorMetric
	return opts
}

func (state *ExecutorState) progress(prefix string, total int) ProgressFunc {
	if !state.Verbose || total <= 0 {
		return nil
	}
	return StdProgressFunc(state.Out, prefix, total, IntMax(1, IntMin(100, total/10)))
}

// CommandFunc is a function that is applied to the current states and
// arguments to that command.
type CommandFunc func(state *ExecutorState, args ...string) error

// Command a command consists of a function to actually execute the command
// and some information about the command.
type Command struct {
	Exec        CommandFunc
	Usage       string
	Description string
}

// CommandMap maps command names to Commands.
type CommandMap map[string]Command

// DefaultCommands contains all commands for creating mosaics.
var DefaultCommands CommandMap

// CommandHandler together with Execute implements a high-level command
// execution loop. CommandFuncs are applied to the current state until there
// are no more commands to execute (no more input).
//
// A command has the form "COMMAND ARG1 ... ARGN" where COMMAND is the command
// name and ARG1 to ARGN are the arguments for the command.
//
// Execute first creates the state with Init and calls Start. For each line
// Before is called, then the line is parsed and executed. Parse errors are
// reported to OnParseErr, unknown commands to OnInvalidCmd and failed
// commands to OnError, each returns true if the execution should continue.
// Successful commands are reported to OnSuccess. After is called when the
// line is done. OnScanErr is called if reading from the state's reader fails.
//
// Commands should return ErrCmdSyntaxErr if the syntax of the command is
// incorrect (for example invalid number of arguments), OnError can print
// the usage of the command in this case.
type CommandHandler interface {
	Init() *ExecutorState
	Start(s *ExecutorState)
	Before(s *ExecutorState)
	After(s *ExecutorState)
	OnParseErr(s *ExecutorState, err error) bool
	OnInvalidCmd(s *ExecutorState, cmd string) bool
	OnSuccess(s *ExecutorState, cmd Command)
	OnError(s *ExecutorState, err error, cmd Command) bool
	OnScanErr(s *ExecutorState, err error)
}

// Execute implements the high-level execution loop as described in the
// documentation of CommandHandler. commandMap is used to lookup commands.
func Execute(handler CommandHandler, commandMap CommandMap) {
	state := handler.Init()
	handler.Start(state)
	scanner := bufio.NewScanner(state.In)
	for scanner.Scan() {
		handler.Before(state)
		if !executeLine(handler, state, commandMap, scanner.Text()) {
			return
		}
		handler.After(state)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		handler.OnScanErr(state, scanErr)
	}
}

// executeLine executes a single line and returns false if the execution should
// stop.
func executeLine(handler CommandHandler, state *ExecutorState, commandMap CommandMap, line string) bool {
	parsedCmd, parseErr := ParseCommand(line)
	if parseErr != nil {
		return handler.OnParseErr(state, parseErr)
	}
	if len(parsedCmd) == 0 || strings.HasPrefix(parsedCmd[0], "#") {
		return true
	}
	cmd := parsedCmd[0]
	nextCmd, ok := commandMap[cmd]
	if !ok {
		return handler.OnInvalidCmd(state, cmd)
	}
	if execErr := nextCmd.Exec(state, parsedCmd[1:]...); execErr != nil {
		return handler.OnError(state, execErr, nextCmd)
	}
	handler.OnSuccess(state, nextCmd)
	return true
}

// states of the ParseCommand automaton
const (
	parseStart = iota
	parseArg
	parseArgEscape
	parseQuoted
	parseQuotedEscape
)

// ParseCommand parses a command of the form "COMMAND ARG1 ... ARGN".
// Examples:
//
// foo bar is the command "foo" with argument "bar". Arguments might also
// be enclosed in quotes, so foo "bar bar" is parsed as command foo with
// argument bar bar (a single argument). Quotes and backslashes inside an
// argument must be escaped with a backslash.
func ParseCommand(s string) ([]string, error) {
	parseErr := errors.New("Error parsing command line")
	res := make([]string, 0)
	var current []rune
	state := parseStart
	for _, r := range s {
		switch state {
		case parseStart:
			switch r {
			case ' ', '\t':
			case '\\':
				state = parseArgEscape
			case '"':
				state = parseQuoted
			default:
				current = append(current, r)
				state = parseArg
			}
		case parseArg:
			switch r {
			case ' ', '\t':
				res = append(res, string(current))
				current = nil
				state = parseStart
			case '\\':
				state = parseArgEscape
			case '"':
				return nil, parseErr
			default:
				current = append(current, r)
			}
		case parseArgEscape, parseQuotedEscape:
			if r != '\\' && r != '"' {
				return nil, parseErr
			}
			current = append(current, r)
			if state == parseArgEscape {
				state = parseArg
			} else {
				state = parseQuoted
			}
		case parseQuoted:
			switch r {
			case '"':
				res = append(res, string(current))
				current = nil
				state = parseStart
			case '\\':
				state = parseQuotedEscape
			default:
				current = append(current, r)
			}
		}
	}
	switch state {
	case parseArgEscape, parseQuoted, parseQuotedEscape:
		return nil, parseErr
	}
	if len(current) > 0 {
		res = append(res, string(current))
	}
	return res, nil
}

// PwdCommand is a command that prints the current working directory.
func PwdCommand(state *ExecutorState, args ...string) error {
	fmt.Fprintln(state.Out, state.WorkingDir)
	return nil
}

// CdCommand is a command that changes the current directory.
func CdCommand(state *ExecutorState, args ...string) error {
	if len(args) != 1 {
		return ErrCmdSyntaxErr
	}
	path, pathErr := state.GetPath(args[0])
	if pathErr != nil {
		return errors.Wrap(pathErr, "Changing directory failed")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "Changing directory failed")
	}
	if !fi.IsDir() {
		return fmt.Errorf("Changing directory failed: \"%s\" is not a directory", path)
	}
	state.WorkingDir = path
	return nil
}

// StatsCommand is a command that prints variable / value pairs.
func StatsCommand(state *ExecutorState, args ...string) error {
	m := map[string]interface{}{
		"routines": state.NumRoutines,
		"verbose":  state.Verbose,
		"interp":   ResizerString(state.Resizer),
		"cache":    state.CacheSize,
		"reload":   state.Reload,
		"metric":   state.ColorMetric,
	}
	if len(args) == 1 {
		val, has := m[args[0]]
		if !has {
			return fmt.Errorf("Unknown variable %s", args[0])
		}
		fmt.Fprintf(state.Out, "%s ==> %v\n", args[0], val)
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, variable := range keys {
		fmt.Fprintf(state.Out, "%s ==> %v\n", variable, m[variable])
	}
	return nil
}

// SetVarCommand sets a variable to a new value.
func SetVarCommand(state *ExecutorState, args ...string) error {
	if len(args) != 2 {
		return errors.New("Invalid set syntax: Requires variable and value. For a list of variables use \"stats\"")
	}
	name, valueStr := args[0], args[1]
	switch name {
	case "routines":
		val, parseErr := strconv.Atoi(valueStr)
		if parseErr != nil || val <= 0 {
			return fmt.Errorf("Invalid value for routines (must be positive int): %s", valueStr)
		}
		state.NumRoutines = val
	case "verbose":
		val, parseErr := strconv.ParseBool(valueStr)
		if parseErr != nil {
			return fmt.Errorf("Invalid value for verbose (must be true or false): %s", valueStr)
		}
		state.Verbose = val
	case "interp":
		resizer, resizerErr := ResizerFromString(valueStr)
		if resizerErr != nil {
			return resizerErr
		}
		state.Resizer = resizer
	case "cache":
		val, parseErr := strconv.Atoi(valueStr)
		if parseErr != nil || val <= 0 {
			return fmt.Errorf("Invalid value for cache size (must be positive int): %s", valueStr)
		}
		state.CacheSize = val
	case "reload":
		val, parseErr := strconv.ParseBool(valueStr)
		if parseErr != nil {
			return fmt.Errorf("Invalid value for reload (must be true or false): %s", valueStr)
		}
		state.Reload = val
	case "metric":
		if _, err := lookupColorMetric(valueStr); err != nil {
			return err
		}
		state.ColorMetric = strings.ToLower(valueStr)
	default:
		return fmt.Errorf("Invalid variable \"%s\". For a list use \"stats\"", name)
	}
	return nil
}

// SourceCommand executes the commands in a script file. Additional arguments
// replace the placeholders $1, $2, ... in the script (see Parameterized).
// The execution stops at the first error.
func SourceCommand(state *ExecutorState, args ...string) error {
	if len(args) == 0 {
		return ErrCmdSyntaxErr
	}
	path, pathErr := state.GetPath(args[0])
	if pathErr != nil {
		return pathErr
	}
	f, openErr := os.Open(path)
	if openErr != nil {
		return newIOError("read", path, openErr)
	}
	defer f.Close()
	r, paramErr := Parameterized(f, args[1:]...)
	if paramErr != nil {
		return paramErr
	}
	return RunCommands(state, r, DefaultCommands)
}

// RunCommands executes all commands from r with the given state. It stops at
// the first error.
func RunCommands(state *ExecutorState, r io.Reader, commandMap CommandMap) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		parsedCmd, parseErr := ParseCommand(scanner.Text())
		if parseErr != nil {
			return errors.Wrapf(parseErr, "Line %d", lineNum)
		}
		if len(parsedCmd) == 0 || strings.HasPrefix(parsedCmd[0], "#") {
			continue
		}
		cmd, ok := commandMap[parsedCmd[0]]
		if !ok {
			return fmt.Errorf("Line %d: Invalid command \"%s\"", lineNum, parsedCmd[0])
		}
		if execErr := cmd.Exec(state, parsedCmd[1:]...); execErr != nil {
			if execErr == ErrCmdSyntaxErr {
				return fmt.Errorf("Line %d: Invalid syntax, usage: %s", lineNum, cmd.Usage)
			}
			return errors.Wrapf(execErr, "Line %d", lineNum)
		}
	}
	return scanner.Err()
}

// ImagesCommand loads the candidate images.
// Without arguments it prints the number of loaded images, with the argument
// "list" the candidates are printed.
// Otherwise the first argument is a glob pattern, the optional second
// argument the cache location (DefaultCachePath if omitted, "none" disables
// the cache) and the optional third argument a bool that forces to rebuild
// the cache (the variable reload is used if omitted).
func ImagesCommand(state *ExecutorState, args ...string) error {
	switch {
	case len(args) == 0:
		fmt.Fprintln(state.Out, "Number of candidate images:", state.Index.Len())
		return nil
	case args[0] == "list":
		if state.Index == nil {
			return errors.New("No images loaded, use \"images <pattern>\"")
		}
		for _, candidate := range state.Index.Candidates {
			fmt.Fprintf(state.Out, "  %s\n", candidate)
		}
		fmt.Fprintln(state.Out, "Total:", state.Index.Len())
		return nil
	case len(args) > 3:
		return ErrCmdSyntaxErr
	}
	pattern, patternErr := state.GetPath(args[0])
	if patternErr != nil {
		return patternErr
	}
	cacheLocation := DefaultCachePath
	if len(args) > 1 {
		cacheLocation = args[1]
	}
	switch {
	case strings.EqualFold(cacheLocation, "none"):
		cacheLocation = ""
	case strings.Contains(cacheLocation, "://"):
	default:
		var cacheErr error
		if cacheLocation, cacheErr = state.GetPath(cacheLocation); cacheErr != nil {
			return cacheErr
		}
		if dirErr := os.MkdirAll(filepath.Dir(cacheLocation), 0755); dirErr != nil {
			return newIOError("mkdir", filepath.Dir(cacheLocation), dirErr)
		}
	}
	mode := UseCacheIfPresent
	reload := state.Reload
	if len(args) > 2 {
		var boolErr error
		if reload, boolErr = strconv.ParseBool(args[2]); boolErr != nil {
			return boolErr
		}
	}
	if reload {
		mode = ForceRebuild
	}
	var progress ProgressFunc
	if matches, globErr := GlobCandidates(pattern); globErr == nil {
		progress = state.progress("Indexing", len(matches))
	}
	start := time.Now()
	index, loadErr := LoadIndex(pattern, cacheLocation, mode, state.NumRoutines, progress)
	if loadErr != nil {
		return loadErr
	}
	state.Index = index
	fmt.Fprintf(state.Out, "Loaded %d candidate images in %v\n", index.Len(), time.Since(start))
	return nil
}

// MosaicCommand creates a mosaic, see Mosaic.Create. The arguments are the
// source image, the grid ("<rows>x<cols>") and optionally the fill mode
// (plain if omitted).
func MosaicCommand(state *ExecutorState, args ...string) error {
	if len(args) < 2 || len(args) > 3 {
		return ErrCmdSyntaxErr
	}
	inPath, inPathErr := state.GetPath(args[0])
	if inPathErr != nil {
		return inPathErr
	}
	rows, cols, dimErr := ParseDimensions(args[1])
	if dimErr != nil {
		return ErrCmdSyntaxErr
	}
	mode := FillPlainColor
	if len(args) > 2 {
		var modeErr error
		if mode, modeErr = ParseFillMode(args[2]); modeErr != nil {
			return modeErr
		}
	}
	if mode.NeedsIndex() && state.Index.Len() == 0 {
		return errors.New("No candidate images loaded, use \"images <pattern>\"")
	}
	start := time.Now()
	mosaic, mosaicErr := NewMosaic(inPath)
	if mosaicErr != nil {
		return mosaicErr
	}
	mosaic.Options = state.Options()
	mosaic.Options.Progress = state.progress("Rows", rows)
	if mode.NeedsIndex() {
		mosaic.SetIndex(state.Index)
	}
	res, createErr := mosaic.Create(rows, cols, mode)
	if createErr != nil {
		return createErr
	}
	fmt.Fprintln(state.Out, "Mosaic saved to", res.PNGPath)
	fmt.Fprintln(state.Out, "Report saved to", res.HTMLPath)
	if res.Stats != nil {
		fmt.Fprintln(state.Out, "Distances:", res.Stats)
	}
	if state.Verbose {
		fmt.Fprintln(state.Out, "Total creation time:", time.Since(start))
	}
	return nil
}

func lookupColorMetric(name string) (ColorMetric, error) {
	metric, ok := GetColorMetric(name)
	if !ok {
		return nil, fmt.Errorf("Unknown color metric \"%s\", valid metrics: %s", name,
			strings.Join(GetColorMetricNames(), " "))
	}
	return metric, nil
}

// MatchCommand prints the candidates closest to a color. The first argument
// is the color ("#rrggbb"), the optional second argument the number of
// candidates to print (default 5).
func MatchCommand(state *ExecutorState, args ...string) error {
	if len(args) == 0 || len(args) > 2 {
		return ErrCmdSyntaxErr
	}
	color, colorErr := ParseHex(args[0])
	if colorErr != nil {
		return colorErr
	}
	k := 5
	if len(args) > 1 {
		var kErr error
		if k, kErr = strconv.Atoi(args[1]); kErr != nil || k <= 0 {
			return fmt.Errorf("Invalid number of candidates: %s", args[1])
		}
	}
	metric, metricErr := lookupColorMetric(state.ColorMetric)
	if metricErr != nil {
		return metricErr
	}
	ranking, rankErr := RankByColor(state.Index, color, metric)
	if rankErr != nil {
		return rankErr
	}
	for i, ranked := range TopCandidates(ranking, k) {
		candidate := state.Index.Get(ranked.Index)
		fmt.Fprintf(state.Out, "%d. %s %s (distance %.2f)\n", i+1, candidate.Average.Hex(),
			candidate.Path, ranked.Score)
	}
	return nil
}

// HashCommand prints the hash and the average color of the given images.
func HashCommand(state *ExecutorState, args ...string) error {
	if len(args) == 0 {
		return ErrCmdSyntaxErr
	}
	for _, arg := range args {
		path, pathErr := state.GetPath(arg)
		if pathErr != nil {
			return pathErr
		}
		img, imgErr := DecodeImageFile(path)
		if imgErr != nil {
			return imgErr
		}
		candidate, candidateErr := NewCandidateImage(path, img)
		if candidateErr != nil {
			return candidateErr
		}
		fmt.Fprintf(state.Out, "%s %s %s\n", HashString(candidate.Hash), candidate.Average.Hex(), path)
	}
	return nil
}

func init() {
	DefaultCommands = make(map[string]Command, 10)
	DefaultCommands["pwd"] = Command{
		Exec:        PwdCommand,
		Usage:       "pwd",
		Description: "Show current working directory.",
	}
	DefaultCommands["cd"] = Command{
		Exec:        CdCommand,
		Usage:       "cd <DIR>",
		Description: "Change working directory to the specified directory.",
	}
	DefaultCommands["stats"] = Command{
		Exec:        StatsCommand,
		Usage:       "stats [variable]",
		Description: "Print the value of a variable or all variables if no variable is given.",
	}
	DefaultCommands["set"] = Command{
		Exec:  SetVarCommand,
		Usage: "set <variable> <value>",
		Description: "Set value for a variable. Variables are routines (number of go routines)," +
			" verbose (true or false), interp (interpolation used when scaling images, for" +
			" example bilinear or lanczos3), cache (number of scaled images to cache)," +
			" reload (always rebuild the image cache) and metric (color metric, one of " +
			strings.Join(GetColorMetricNames(), ", ") + ").",
	}
	DefaultCommands["source"] = Command{
		Exec:        SourceCommand,
		Usage:       "source <FILE> [args...]",
		Description: "Execute the commands in FILE, $1, $2, ... are replaced by args.",
	}
	DefaultCommands["images"] = Command{
		Exec:  ImagesCommand,
		Usage: "images [list | <pattern> [cache] [reload]]",
		Description: "Load candidate images matching the glob pattern. cache is the" +
			" location of the cache (default " + DefaultCachePath + ", \"none\" disables" +
			" the cache): a file (.json, .gob, .zst or no extension), an SQLite database" +
			" (.db, .sqlite) or redis (redis://host:port/db#key). If reload is true the" +
			" cache is rebuilt. Without arguments the number of images is printed, with" +
			" \"list\" all images.",
	}
	DefaultCommands["mosaic"] = Command{
		Exec:  MosaicCommand,
		Usage: "mosaic <in> <rows>x<cols> [plain|color|hash]",
		Description: "Creates a mosaic from the image in with the given number of rows and" +
			" columns. plain fills each cell with its average color, color with the" +
			" candidate image closest to the average color and hash with the candidate" +
			" with the most similar structure. The result is written next to in as png" +
			" and HTML, for example \"mosaic in.jpg 20x30 color\" creates in-20x30.png" +
			" and in-20x30.html.",
	}
	DefaultCommands["match"] = Command{
		Exec:        MatchCommand,
		Usage:       "match <#rrggbb> [k]",
		Description: "Show the k (default 5) candidate images closest to the color.",
	}
	DefaultCommands["hash"] = Command{
		Exec:        HashCommand,
		Usage:       "hash <FILE>...",
		Description: "Print the hash and average color of images.",
	}
}

// ReplHandler implements CommandHandler by reading commands from stdin and
// writing output to stdout.
type ReplHandler struct{}

// Init creates an initial ExecutorState reading from stdin.
func (h ReplHandler) Init() *ExecutorState {
	return NewExecutorState(os.Stdin, os.Stdout)
}

func (h ReplHandler) Start(s *ExecutorState) {
	fmt.Println("Welcome to the photomosaic generator")
	fmt.Println("Copyright © 2018 Fabian Wenzelmann")
	fmt.Print(">>> ")
}

func (h ReplHandler) Before(s *ExecutorState) {}

func (h ReplHandler) After(s *ExecutorState) {
	fmt.Print(">>> ")
}

func (h ReplHandler) OnParseErr(s *ExecutorState, err error) bool {
	fmt.Println("Syntax error", err)
	return true
}

func (h ReplHandler) OnInvalidCmd(s *ExecutorState, cmd string) bool {
	fmt.Printf("Invalid command \"%s\"\n", cmd)
	return true
}

func (h ReplHandler) OnSuccess(s *ExecutorState, cmd Command) {}

func (h ReplHandler) OnError(s *ExecutorState, err error, cmd Command) bool {
	if err == ErrCmdSyntaxErr {
		fmt.Println("Invalid syntax for command.")
		fmt.Println("Usage:", cmd.Usage)
	} else {
		fmt.Println("Error while executing command:", err.Error())
	}
	return true
}

func (h ReplHandler) OnScanErr(s *ExecutorState, err error) {
	fmt.Println("Error while reading:", err.Error())
}

// ScriptHandler implements CommandHandler. It writes the output to Out
// (stdout if nil) and reads from a specified reader. It stops whenever an
// error is encountered, the error is stored in Err.
type ScriptHandler struct {
	Source io.Reader
	Out    io.Writer
	Err    *error
}

// NewScriptHandler returns a new script handler that reads input from the given
// source.
func NewScriptHandler(source io.Reader) ScriptHandler {
	var err error
	return ScriptHandler{Source: source, Out: os.Stdout, Err: &err}
}

// Init creates an initial ExecutorState reading from the source.
func (h ScriptHandler) Init() *ExecutorState {
	out := h.Out
	if out == nil {
		out = os.Stdout
	}
	return NewExecutorState(h.Source, out)
}

func (h ScriptHandler) Start(s *ExecutorState) {}

func (h ScriptHandler) Before(s *ExecutorState) {}

func (h ScriptHandler) After(s *ExecutorState) {}

func (h ScriptHandler) setErr(err error) {
	if h.Err != nil && *h.Err == nil {
		*h.Err = err
	}
}

func (h ScriptHandler) OnParseErr(s *ExecutorState, err error) bool {
	fmt.Fprintln(os.Stderr, "Syntax error:", err)
	h.setErr(err)
	return false
}

func (h ScriptHandler) OnInvalidCmd(s *ExecutorState, cmd string) bool {
	fmt.Fprintf(os.Stderr, "Invalid command \"%s\"\n", cmd)
	h.setErr(fmt.Errorf("Invalid command \"%s\"", cmd))
	return false
}

func (h ScriptHandler) OnSuccess(s *ExecutorState, cmd Command) {}

func (h ScriptHandler) OnError(s *ExecutorState, err error, cmd Command) bool {
	if err == ErrCmdSyntaxErr {
		fmt.Fprintln(os.Stderr, "Error: Invalid syntax for command.")
		fmt.Fprintln(os.Stderr, "Usage:", cmd.Usage)
	} else {
		fmt.Fprintln(os.Stderr, "Error while executing command:", err.Error())
	}
	h.setErr(err)
	return false
}

func (h ScriptHandler) OnScanErr(s *ExecutorState, err error) {
	fmt.Fprintln(os.Stderr, "Error while reading:", err.Error())
	h.setErr(err)
}

// ScriptHandlerFromCmds is a function to create a script handler from
// a predefined set of lines. This allows us for easy execution of predefined
// scripts.
func ScriptHandlerFromCmds(lines []string) ScriptHandler {
	return NewScriptHandler(ReaderFromCmdLines(lines))
}

// ReaderFromCmdLines returns a reader for a script source that reads the
// content of the combined lines.
func ReaderFromCmdLines(lines []string) io.Reader {
	return strings.NewReader(strings.Join(lines, "\n"))
}

func argsReplacer(args []string) *strings.Replacer {
	// replace in reverse order, otherwise $1 would replace the prefix of $10
	replaceArgs := make([]string, 0, 2*len(args))
	for i := len(args) - 1; i >= 0; i-- {
		replaceArgs = append(replaceArgs, fmt.Sprintf("$%d", i+1), args[i])
	}
	return strings.NewReplacer(replaceArgs...)
}

// Parameterized is used to transform parameterized commands into executable
// commands, that means replacing variables $i with the provided argument.
// Example:
// The command "images $1" can be called with one argument that will replace
// the placeholder $1.
//
// The whole reader is read before the transformed reader is returned, scripts
// are usually short.
func Parameterized(r io.Reader, args ...string) (io.Reader, error) {
	replacer := argsReplacer(args)
	lines := make([]string, 0, 20)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, replacer.Replace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ReaderFromCmdLines(lines), nil
}

// ParameterizedFromStrings works as Parameterized but reads the commands
// from a list, each entry is a command.
func ParameterizedFromStrings(commands []string, args ...string) io.Reader {
	replacer := argsReplacer(args)
	lines := make([]string, 0, len(commands))
	for _, line := range commands {
		lines = append(lines, replacer.Replace(line))
	}
	return ReaderFromCmdLines(lines)
}
