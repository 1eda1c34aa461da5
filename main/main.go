package main

import (
	"flag"
	"fmt"
	"os"
	"path"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	plt "github.com/phil-mansfield/pyplot"
	"golang.org/x/exp/slog"

	"github.com/phil-mansfield/chgslice/density"
	"github.com/phil-mansfield/chgslice/geom"
	"github.com/phil-mansfield/chgslice/io"
	"github.com/phil-mansfield/chgslice/render"
)

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
}

// Close stops the CPU profile and closes the files inside FileGroup. Closing
// a FileGroup twice is a no-op.
func (fg *FileGroup) Close() error {
	var err error
	if fg.prof != nil {
		pprof.StopCPUProfile()
		err = fg.prof.Close()
		fg.prof = nil
	}
	if fg.log != nil {
		if lerr := fg.log.Close(); err == nil {
			err = lerr
		}
		fg.log = nil
	}
	return err
}

var (
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	// files is the FileGroup opened by setupFiles, if any.
	files *FileGroup
)

// closeFiles closes files and resets logging to stderr.
func closeFiles() {
	if files == nil {
		return
	}
	fg := files
	files = nil
	if err := fg.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Could not close log or profile file: %s\n", err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// fatal logs an error record, closes any open log and profile files, and
// exits.
func fatal(msg string, args ...any) {
	logger.Error(msg, args...)
	closeFiles()
	os.Exit(1)
}

func main() {
	var (
		sliceStr, infoStr, exampleConfig string
		verbose                          bool
	)
	vars := map[string]*string{
		"Slice":         &sliceStr,
		"Info":          &infoStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.IntVar(
		&render.NumCores, "Threads", runtime.NumCPU(),
		"Number of threads used. Default is the number of logical cores.",
	)
	flag.BoolVar(
		&verbose, "Verbose", false, "Log per-plane timing information.",
	)
	flag.StringVar(
		&sliceStr, "Slice", "",
		"Configuration file for [Slice] mode, along with at least one "+
			"Plane file that specifies the cutting planes.",
	)
	flag.StringVar(
		&infoStr, "Info", "",
		"Grid file to print a summary of.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. Accepted arguments are 'Slice' and "+
			"'Plane'.",
	)

	flag.Parse()

	if verbose {
		logger = slog.New(slog.NewTextHandler(
			os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug},
		))
	}

	modeName, err := getModeName(vars)
	if err != nil {
		fatal(err.Error())
	}

	switch modeName {
	case "Slice":
		con, err := io.ReadSliceConfig(sliceStr)
		if err != nil {
			fatal("Invalid Slice config.", "file", sliceStr, "err", err)
		}

		planeFiles := flag.Args()
		if len(planeFiles) < 1 {
			fatal("Must supply at least one Plane file.")
		}
		sliceMain(con, planeFiles, verbose)

	case "Info":
		infoMain(infoStr)

	case "ExampleConfig":
		switch exampleConfig {
		case "Slice":
			fmt.Println(io.ExampleSliceFile)
		case "Plane":
			fmt.Println(io.ExamplePlaneFile)
		default:
			fatal("Unrecognized 'ExampleConfig' argument. Only recognized " +
				"arguments are 'Slice' and 'Plane'.")
		}
	default:
		panic("Impossible")
	}
}

// getModeName returns the name of the mode and fails with a descriptive error
// if the user provided less or more than one mode flag.
func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but chgslice "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

// setupFiles redirects logging and starts CPU profiling as requested by the
// config file. The files are closed by closeFiles.
func setupFiles(con *io.SliceConfig, verbose bool) {
	fg := &FileGroup{}
	files = fg
	var err error

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			fatal("Could not create log file.", "file", con.LogFile, "err", err)
		}
		opts := &slog.HandlerOptions{}
		if verbose {
			opts.Level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(fg.log, opts))
	}

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			fatal("Could not create profile file.",
				"file", con.ProfileFile, "err", err)
		}
		if err = pprof.StartCPUProfile(fg.prof); err != nil {
			fg.prof.Close()
			fg.prof = nil
			fatal("Could not start CPU profile.", "err", err)
		}
	}
}

// readGrid reads and parses a (possibly compressed) grid file.
func readGrid(file string) (*io.Grid, error) {
	r, err := io.OpenGrid(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadCHGCAR(r)
}

// loadGrid reads a grid file and builds the lattice and field it describes.
func loadGrid(file string) (*io.Grid, *geom.Lattice, *density.Field) {
	start := time.Now()
	grid, err := readGrid(file)
	if err != nil {
		fatal("Could not read grid file.", "file", file, "err", err)
	}

	lattice, err := grid.Lattice()
	if err != nil {
		fatal("Invalid lattice.", "file", file, "err", err)
	}
	field, err := grid.Field()
	if err != nil {
		fatal("Invalid grid.", "file", file, "err", err)
	}

	logger.Info("Read grid.",
		"file", file, "dims", grid.Dims, "channels", len(grid.Channels),
		"atoms", len(grid.Atoms), "volume", lattice.Volume(),
		"elapsed", time.Since(start))

	return grid, lattice, field
}

// sliceMain renders every plane in planeFiles through the grid named in con.
// All input is validated before the first output file is written.
func sliceMain(con *io.SliceConfig, planeFiles []string, verbose bool) {
	setupFiles(con, verbose)
	defer closeFiles()

	planes, err := io.ReadPlanesConfig(planeFiles...)
	if err != nil {
		fatal("Invalid Plane config.", "err", err)
	}

	_, lattice, field := loadGrid(con.Input)
	if con.DivideByVolume {
		field = field.Normalize(lattice.Volume())
	}
	if _, err := field.Channel(con.Channel); err != nil {
		fatal("Invalid 'Channel' value.", "err", err)
	}

	cb := render.DefaultColorbar()
	if con.ValidColorbar() {
		nodes, err := io.ReadColorbar(con.Colorbar)
		if err != nil {
			fatal("Could not read colorbar.", "file", con.Colorbar, "err", err)
		}
		if cb, err = render.NewColorbar(nodes); err != nil {
			fatal("Invalid colorbar.", "file", con.Colorbar, "err", err)
		}
	}

	for i := range planes {
		p := planes[i].Plane()
		if err := p.Check(lattice); err != nil {
			fatal("Invalid plane.", "plane", planes[i].Name, "err", err)
		}
	}

	if err = os.MkdirAll(con.Output, 0777); err != nil {
		fatal("Could not create output directory.",
			"dir", con.Output, "err", err)
	}

	man := render.NewManager(field, lattice)
	man.SetLogger(logger)

	linePlots := 0
	for i := range planes {
		name, p := planes[i].Name, planes[i].Plane()

		slice, err := man.Render(&p, con.Channel, con.ClipToCell)
		if err != nil {
			fatal("Could not render plane.", "plane", name, "err", err)
		}

		st := slice.Stats()
		logger.Info("Rendered plane.",
			"plane", name, "nu", slice.NU, "nv", slice.NV,
			"min", st.Min, "max", st.Max, "mean", st.Mean,
			"background", st.Background)

		base := path.Join(con.Output, con.PrependName+name+con.AppendName)

		if err = writePAM(base+".pam", slice, con.ScaleFactor, cb.Color); err != nil {
			fatal("Could not write image.", "file", base+".pam", "err", err)
		}
		logger.Info("Wrote image.", "file", base+".pam")

		if con.Heatmap {
			if err = render.WriteHeatmap(slice, name, base+"_heatmap.png"); err != nil {
				logger.Warn("Skipping heat map.", "plane", name, "err", err)
			}
		}

		if con.LinePlot {
			err = render.WriteLinePlot(slice, slice.NV/2, name, base+"_line.png")
			if err != nil {
				logger.Warn("Skipping line plot.", "plane", name, "err", err)
			} else {
				linePlots++
			}
		}

		if con.Hist {
			if err = writeHist(base+"_hist.txt", slice, st, con); err != nil {
				logger.Warn("Skipping histogram.", "plane", name, "err", err)
			}
		}
	}

	if linePlots > 0 {
		plt.Execute()
	}
}

func writePAM(
	fname string, slice *render.Slice, scale float64, fn render.ColorFunc,
) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	img := slice.Image(scale, fn)
	if err = io.WritePAM(f, slice.NU, slice.NV, img.Pix); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeHist(
	fname string, slice *render.Slice, st render.Stats, con *io.SliceConfig,
) error {
	info, err := st.HistInfo(con.HistBins, con.HistScale)
	if err != nil {
		return err
	}
	centers, counts, err := slice.Hist(info)
	if err != nil {
		return err
	}

	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err = io.WriteHist(f, centers, counts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// infoMain prints a summary of a grid file to stdout.
func infoMain(file string) {
	grid, lattice, field := loadGrid(file)

	fmt.Printf("Comment:  %s\n", grid.Comment)
	a, b, c := lattice.Vectors()
	fmt.Printf("Lattice:  a = %9.5f\n", a)
	fmt.Printf("          b = %9.5f\n", b)
	fmt.Printf("          c = %9.5f\n", c)
	fmt.Printf("Volume:   %.5f\n", lattice.Volume())
	fmt.Printf("Grid:     %d x %d x %d\n", grid.Dims[0], grid.Dims[1], grid.Dims[2])

	for i := 0; i < field.Channels(); i++ {
		ch, _ := field.Channel(i)
		min, max := ch.MinMax()
		fmt.Printf("Channel %d: min = %.6g, max = %.6g\n", i, min, max)
	}

	if len(grid.Counts) > 0 {
		atoms := make([]string, len(grid.Counts))
		for i, n := range grid.Counts {
			name := fmt.Sprintf("#%d", i+1)
			if grid.Species != nil {
				name = grid.Species[i]
			}
			atoms[i] = fmt.Sprintf("%s: %d", name, n)
		}
		fmt.Printf("Atoms:    %s\n", strings.Join(atoms, ", "))
	}
}
