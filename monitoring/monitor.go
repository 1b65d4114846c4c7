// Package monitoring turns a running array into a web server that exposes
// its tiles, the fill level of its pipes and the resources of the process.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/aiesim/array"
	"github.com/sarchlab/aiesim/graphics"
	"github.com/sarchlab/aiesim/monitoring/web"
	"github.com/sarchlab/aiesim/sim/hooking"
	"github.com/sarchlab/aiesim/sim/id"
	"github.com/sarchlab/aiesim/sim/pipe"
	"github.com/sarchlab/aiesim/streamswitch"
	"github.com/sarchlab/aiesim/tile"
	"github.com/sarchlab/aiesim/tracing"
)

// Monitor can turn an array into a server and allows external monitoring of
// the tiles while they run.
type Monitor struct {
	lock       sync.RWMutex
	tiles      []*tile.Tile
	pipes      []*pipe.Pipe
	grid       *graphics.ImageGrid
	counter    *tracing.TransferCounter
	portNumber int
	url        string
	ids        id.IDGenerator

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		ids: id.NewIDGenerator(),
	}
}

// WithPortNumber sets the port number of the monitor. 0 picks a free port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		slog.Warn("monitoring port is not allowed, using a random port",
			"port", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterArray registers the tiles and pipes of an array and tracks the
// number of finished tiles with a progress bar.
func (m *Monitor) RegisterArray(a *array.Array) {
	m.lock.Lock()
	m.tiles = append(m.tiles, a.Tiles()...)
	m.pipes = append(m.pipes, a.Pipes()...)
	m.lock.Unlock()

	bar := m.CreateProgressBar(a.Name(), uint64(len(a.Tiles())))
	a.AcceptHook(&progressHook{bar: bar})
}

// RegisterImageGrid sets the grid served as PNG.
func (m *Monitor) RegisterImageGrid(g *graphics.ImageGrid) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.grid = g
}

// RegisterTransferCounter sets the counter served as pipe traffic.
func (m *Monitor) RegisterTransferCounter(c *tracing.TransferCounter) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.counter = c
}

// registered returns the tiles and pipes registered so far. Registration
// only appends, so the returned slices are never written again.
func (m *Monitor) registered() ([]*tile.Tile, []*pipe.Pipe) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.tiles[:len(m.tiles):len(m.tiles)],
		m.pipes[:len(m.pipes):len(m.pipes)]
}

type progressHook struct {
	bar *ProgressBar
}

func (h *progressHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case array.HookPosTileStart:
		h.bar.IncrementInProgress(1)
	case array.HookPosTileFinish:
		h.bar.MoveInProgressToFinished(1)
	}
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.ids.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/list_tiles", m.listTiles)
	r.HandleFunc("/api/tile/{name}", m.listTileDetails)
	r.HandleFunc("/api/hangdetector/pipes", m.hangDetectorPipes)
	r.HandleFunc("/api/traffic", m.reportTraffic)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/api/image.png", m.renderImage)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(web.Handler())

	return r
}

// StartServer starts the monitor as a web server on the configured port.
func (m *Monitor) StartServer() {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	dieOnErr(err)

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	slog.Info("monitoring array", "url", m.url)

	r := m.router()

	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()
}

// URL returns the address of the server, empty before StartServer.
func (m *Monitor) URL() string {
	return m.url
}

// OpenBrowser shows the monitoring page in the default browser.
func (m *Monitor) OpenBrowser() error {
	if m.url == "" {
		return errors.New("monitoring server is not started")
	}

	return browser.OpenURL(m.url)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listTiles(w http.ResponseWriter, _ *http.Request) {
	tiles, _ := m.registered()

	names := make([]string, 0, len(tiles))
	for _, t := range tiles {
		names = append(names, t.Name())
	}

	writeJSON(w, names)
}

type portDetail struct {
	Name      string
	Pipe      string
	Level     int
	Cap       int
	Connected bool
}

type tileDetail struct {
	Name            string
	X               int
	Y               int
	CascadeLinearID int
	CascadeStart    bool
	CascadeEnd      bool
	Inputs          []portDetail
	Outputs         []portDetail
}

func portDetails(ports []*streamswitch.Port) []portDetail {
	details := make([]portDetail, 0, len(ports))
	for _, p := range ports {
		details = append(details, portDetail{
			Name:      p.Name(),
			Pipe:      p.Pipe().Name(),
			Level:     p.Pipe().Size(),
			Cap:       p.Pipe().Capacity(),
			Connected: p.IsConnected(),
		})
	}

	return details
}

func detailOf(t *tile.Tile) tileDetail {
	return tileDetail{
		Name:            t.Name(),
		X:               t.X(),
		Y:               t.Y(),
		CascadeLinearID: t.CascadeLinearID(),
		CascadeStart:    t.IsCascadeStart(),
		CascadeEnd:      t.IsCascadeEnd(),
		Inputs:          portDetails(t.Switch().Inputs()),
		Outputs:         portDetails(t.Switch().Outputs()),
	}
}

func (m *Monitor) listTileDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	t := m.findTileOr404(w, name)
	if t == nil {
		return
	}

	detail := detailOf(t)

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&detail)
	serializer.SetMaxDepth(3)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) findTileOr404(
	w http.ResponseWriter,
	name string,
) *tile.Tile {
	tiles, _ := m.registered()
	for _, t := range tiles {
		if t.Name() == name {
			return t
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Tile not found"))
	dieOnErr(err)

	return nil
}

type pipeLevel struct {
	Pipe  string `json:"pipe"`
	Level int    `json:"level"`
	Cap   int    `json:"cap"`
}

func (m *Monitor) hangDetectorPipes(w http.ResponseWriter, r *http.Request) {
	sortMethod, limit, offset, err := pipesParseParams(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	writeJSON(w, m.sortAndSelectPipes(sortMethod, limit, offset))
}

func pipesParseParams(
	r *http.Request,
) (sortMethod string, limit, offset int, err error) {
	sortMethod = r.URL.Query().Get("sort")
	if sortMethod == "" {
		sortMethod = "percent"
	}

	if sortMethod != "level" && sortMethod != "percent" {
		return "", 0, 0, errors.Errorf(
			"invalid sort method: %s. Allowed values are `level` and `percent`",
			sortMethod)
	}

	limit, err = intParam(r, "limit")
	if err != nil {
		return sortMethod, 0, 0, err
	}

	offset, err = intParam(r, "offset")
	if err != nil {
		return sortMethod, limit, 0, err
	}

	return sortMethod, limit, offset, nil
}

func intParam(r *http.Request, key string) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "parameter %s", key)
	}

	if n < 0 {
		return 0, errors.Errorf("parameter %s must not be negative", key)
	}

	return n, nil
}

// sortAndSelectPipes orders the pipes from the fullest. A limit of 0 keeps
// every pipe after offset. Each pipe is sampled once, so the levels reported
// are the ones the order is based on.
func (m *Monitor) sortAndSelectPipes(
	sortMethod string,
	limit, offset int,
) []pipeLevel {
	type snapshot struct {
		p       *pipe.Pipe
		size    int
		percent float64
	}

	_, registeredPipes := m.registered()

	snapshots := make([]snapshot, len(registeredPipes))
	for i, p := range registeredPipes {
		size := p.Size()
		snapshots[i] = snapshot{
			p:       p,
			size:    size,
			percent: float64(size) / float64(p.Capacity()),
		}
	}

	switch sortMethod {
	case "level":
		sort.SliceStable(snapshots, func(i, j int) bool {
			if snapshots[i].size != snapshots[j].size {
				return snapshots[i].size > snapshots[j].size
			}

			return snapshots[i].percent > snapshots[j].percent
		})
	case "percent":
		sort.SliceStable(snapshots, func(i, j int) bool {
			if snapshots[i].percent != snapshots[j].percent {
				return snapshots[i].percent > snapshots[j].percent
			}

			return snapshots[i].size > snapshots[j].size
		})
	default:
		panic("invalid sort method " + sortMethod)
	}

	if offset > len(snapshots) {
		offset = len(snapshots)
	}

	end := len(snapshots)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	levels := make([]pipeLevel, 0, end-offset)
	for _, s := range snapshots[offset:end] {
		levels = append(levels, pipeLevel{
			Pipe:  s.p.Name(),
			Level: s.size,
			Cap:   s.p.Capacity(),
		})
	}

	return levels
}

func (m *Monitor) reportTraffic(w http.ResponseWriter, _ *http.Request) {
	m.lock.RLock()
	counter := m.counter
	m.lock.RUnlock()

	if counter == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Traffic is not traced"))
		dieOnErr(err)

		return
	}

	writeJSON(w, counter.Counts())
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressBarRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func (m *Monitor) renderImage(w http.ResponseWriter, _ *http.Request) {
	m.lock.RLock()
	grid := m.grid
	m.lock.RUnlock()

	if grid == nil {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("No image grid"))
		dieOnErr(err)

		return
	}

	w.Header().Set("Content-Type", "image/png")
	dieOnErr(grid.WritePNG(w))
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
