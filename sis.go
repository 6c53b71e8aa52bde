package main

/* sis is a web server computing spectral indices over published
   raster datasets. Requests follow a query string protocol in the
   OWS style: a GetCapabilities document lists the datasets and the
   index catalog, GetIndex renders one index as a PNG and DrillIndex
   aggregates it over a region of interest. Configuration of the
   server is specified in the config.json file where datasets,
   colour palettes and custom index formulas can be defined.
   The imaging metadata of datasets without a sidecar header is
   resolved through the meta service. */

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/nci/spectral/metrics"
	"github.com/nci/spectral/params"
	proc "github.com/nci/spectral/processor"
	"github.com/nci/spectral/raster"
	"github.com/nci/spectral/utils"

	reuseport "github.com/kavu/go_reuseport"
)

// Global variable to hold the values specified
// on the config.json document.
var config = &utils.Config{}

var (
	port            = flag.Int("p", 8080, "Server listening port.")
	serverDataDir   = flag.String("data_dir", utils.DataDir, "Server data directory.")
	serverConfigDir = flag.String("conf_dir", utils.EtcDir, "Server config directory.")
	serverLogDir    = flag.String("log_dir", "", "Server log directory.")
	validateConfig  = flag.Bool("check_conf", false, "Validate server config file.")
	verbose         = flag.Bool("v", false, "Verbose mode for more server outputs.")
)

var reSISMap map[string]*regexp.Regexp

var (
	Error *log.Logger
	Info  *log.Logger
)

var metricsLogger metrics.Logger

var loader *datasetLoader

// init initialises the loggers, checks required files are in place
// and sets the Config struct. This is the first function to be
// called in main.
func init() {
	Error = log.New(os.Stderr, "SIS: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info = log.New(os.Stdout, "SIS: ", log.Ldate|log.Ltime|log.Lshortfile)

	flag.Parse()

	utils.DataDir = *serverDataDir
	utils.EtcDir = *serverConfigDir

	filePaths := []string{
		utils.DataDir + "/templates/SIS_GetCapabilities.tpl"}

	for _, filePath := range filePaths {
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			panic(err)
		}
	}

	configFile := utils.EtcDir + "/config.json"
	if err := config.LoadConfigFile(configFile); err != nil {
		Error.Printf("Error in loading config file: %v\n", err)
		panic(err)
	}

	if *validateConfig {
		os.Exit(0)
	}

	utils.WatchConfig(Info, Error, configFile, config)

	reSISMap = utils.CompileSISRegexMap()

	var meta *utils.MetaClient
	if len(config.ServiceConfig.MetaAddress) > 0 {
		meta = utils.NewMetaClient(config.ServiceConfig.MetaAddress, *verbose)
	}
	loader = newDatasetLoader(config, meta)

	if len(*serverLogDir) > 0 {
		if *serverLogDir == "-" {
			metricsLogger = metrics.NewStdoutLogger()
		} else {
			maxLogFileSize := int64(0)
			if val, ok := os.LookupEnv("SIS_MAX_LOG_FILE_SIZE"); ok {
				valInt, e := strconv.ParseInt(val, 10, 64)
				if e == nil {
					maxLogFileSize = valInt
				} else {
					Error.Printf("invalid SIS_MAX_LOG_FILE_SIZE: %v", e)
				}
			}

			maxLogFiles := -1
			if val, ok := os.LookupEnv("SIS_MAX_LOG_FILES"); ok {
				valInt, e := strconv.ParseInt(val, 10, 32)
				if e == nil {
					maxLogFiles = int(valInt)
				} else {
					Error.Printf("invalid SIS_MAX_LOG_FILES: %v", e)
				}
			}

			metricsLogger = metrics.NewFileLogger(*serverLogDir, maxLogFileSize, maxLogFiles, *verbose)
		}
	}
}

// resolveFormula looks the index identifier up in the built in
// catalog first, then compiles it from the custom index
// declarations of the config.
func resolveFormula(conf *utils.Config, identifier string) (*proc.Formula, error) {
	if f := proc.IndexByIdentifier(identifier); f != nil {
		return f, nil
	}
	for i := range conf.CustomIndices {
		if conf.CustomIndices[i].Identifier == identifier {
			return proc.FormulaFromConfig(&conf.CustomIndices[i])
		}
	}
	return nil, fmt.Errorf("unknown index: %v", identifier)
}

// bandBindings turns the role=index pairs of the bands query
// parameter into parameter bindings for the formula.
func bandBindings(formula *proc.Formula, bands map[string]int) (params.Bindings, error) {
	if len(bands) == 0 {
		return nil, nil
	}
	bindings := params.Bindings{}
	for role, idx := range bands {
		var bound bool
		for _, req := range formula.Bands {
			if req.Role == role && req.Parameter != nil {
				bindings.Set(req.Parameter, idx)
				bound = true
				break
			}
		}
		if !bound {
			return nil, fmt.Errorf("index %s has no band role %q", formula.Identifier, role)
		}
	}
	return bindings, nil
}

// computeIndex runs one request through the index pipeline and
// returns the computed result geometry.
func computeIndex(ctx context.Context, sisParams utils.SISParams, conf *utils.Config, metricsCollector *metrics.MetricsCollector) (*raster.SpectralGeometry, *utils.Dataset, error) {
	formula, err := resolveFormula(conf, *sisParams.Index)
	if err != nil {
		return nil, nil, err
	}
	ds := conf.GetDataset(*sisParams.Dataset)
	if ds == nil {
		return nil, nil, fmt.Errorf("unknown dataset: %v", *sisParams.Dataset)
	}
	bindings, err := bandBindings(formula, sisParams.Bands)
	if err != nil {
		return nil, nil, err
	}

	conc := 1
	if sisParams.Conc != nil {
		conc = *sisParams.Conc
	}

	t0 := time.Now()

	errChan := make(chan error, 100)
	idxProc := proc.NewIndexProcessor(ctx, loader, errChan)
	idxProc.Custom = map[string]*proc.Formula{formula.Identifier: formula}
	go idxProc.Run()
	idxProc.In <- &proc.IndexRequest{
		Index:     formula.Identifier,
		Dataset:   ds.Name,
		Bindings:  bindings,
		Feature:   sisParams.Feature,
		ConcLevel: conc,
	}
	close(idxProc.In)

	var sg *raster.SpectralGeometry
	select {
	case res, ok := <-idxProc.Out:
		if ok {
			sg = res
		}
	case err := <-errChan:
		return nil, nil, err
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("request context has been cancel: %v", ctx.Err())
	}
	if sg == nil {
		select {
		case err := <-errChan:
			return nil, nil, err
		default:
			return nil, nil, fmt.Errorf("index pipeline produced no result")
		}
	}

	metricsCollector.Info.Index = &metrics.IndexInfo{
		Identifier:  formula.Identifier,
		Dataset:     ds.Name,
		Rows:        sg.Raster.NumberOfRows(),
		Columns:     sg.Raster.NumberOfColumns(),
		OutputBands: sg.Raster.NumberOfBands(),
		Masked:      sisParams.Feature != nil,
		Duration:    time.Since(t0),
	}

	return sg, ds, nil
}

// scaleParamsFor merges the byte scaling settings of a request with
// the dataset defaults. Without either, the range is set for the
// normalized difference indices which span [-1, 1].
func scaleParamsFor(ds *utils.Dataset, sisParams utils.SISParams) utils.ScaleParams {
	sp := utils.ScaleParams{Offset: ds.OffsetValue, Scale: ds.ScaleValue, Clip: ds.ClipValue}
	if sisParams.Offset != nil {
		sp.Offset = *sisParams.Offset
	}
	if sisParams.Scale != nil {
		sp.Scale = *sisParams.Scale
	}
	if sisParams.Clip != nil {
		sp.Clip = *sisParams.Clip
	}
	if sp.Clip <= 0 {
		sp.Offset = 1
		sp.Scale = 1
		sp.Clip = 2
	}
	return sp
}

func serveGetIndex(ctx context.Context, sisParams utils.SISParams, conf *utils.Config, w http.ResponseWriter, metricsCollector *metrics.MetricsCollector) {
	sg, ds, err := computeIndex(ctx, sisParams, conf, metricsCollector)
	if err != nil {
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("%v", err), 400)
		return
	}

	norm, err := utils.Scale(sg.Raster, scaleParamsFor(ds, sisParams))
	if err != nil {
		metricsCollector.Info.HTTPStatus = 500
		http.Error(w, fmt.Sprintf("Problem scaling index values: %v", err), 500)
		return
	}
	if _, _, err := utils.ValidateByteRasterSlice(norm); err != nil {
		metricsCollector.Info.HTTPStatus = 500
		http.Error(w, fmt.Sprintf("Problem scaling index values: %v", err), 500)
		return
	}

	paletteName := sg.Presentation.PaletteName
	if len(ds.Palette) > 0 {
		paletteName = ds.Palette
	}
	if sisParams.Palette != nil {
		paletteName = *sisParams.Palette
	}
	if len(paletteName) == 0 {
		paletteName = "grayscale"
	}
	palette, err := conf.GetPalette(paletteName)
	if err != nil {
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("%v", err), 400)
		return
	}

	out, err := utils.EncodePNG(norm, palette)
	if err != nil {
		metricsCollector.Info.HTTPStatus = 500
		http.Error(w, fmt.Sprintf("Problem encoding PNG: %v", err), 500)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(out)
}

func serveDrillIndex(ctx context.Context, sisParams utils.SISParams, conf *utils.Config, w http.ResponseWriter, metricsCollector *metrics.MetricsCollector) {
	if sisParams.Feature == nil {
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, "DrillIndex requires a 'geometry' parameter", 400)
		return
	}
	sg, _, err := computeIndex(ctx, sisParams, conf, metricsCollector)
	if err != nil {
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("%v", err), 400)
		return
	}

	// masked out cells carry the NoData value and never contribute
	dr, err := proc.Drill(*sisParams.Index, sg, nil)
	if err != nil {
		metricsCollector.Info.HTTPStatus = 500
		http.Error(w, fmt.Sprintf("Problem drilling index: %v", err), 500)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	io.WriteString(w, dr.ToCSV())
}

type bandDescription struct {
	Role       string `json:"role"`
	Parameter  string `json:"parameter,omitempty"`
	Domain     string `json:"domain,omitempty"`
	Wavelength string `json:"wavelength,omitempty"`
	Default    *int   `json:"default,omitempty"`
}

type coefficientDescription struct {
	Identifier string      `json:"identifier"`
	Name       string      `json:"name"`
	Default    interface{} `json:"default,omitempty"`
}

type indexDescription struct {
	Identifier   string                   `json:"identifier"`
	Name         string                   `json:"name"`
	OutputBands  int                      `json:"output_bands"`
	Bands        []bandDescription        `json:"bands"`
	Coefficients []coefficientDescription `json:"coefficients,omitempty"`
}

func describeFormula(f *proc.Formula) *indexDescription {
	desc := &indexDescription{
		Identifier:  f.Identifier,
		Name:        f.Name,
		OutputBands: f.Result.Bands,
	}
	for _, req := range f.Bands {
		bd := bandDescription{Role: req.Role, Wavelength: req.MatchDesc}
		if req.Parameter != nil {
			bd.Parameter = req.Parameter.Identifier
		}
		if req.Domain != raster.Undefined {
			bd.Domain = req.Domain.String()
		}
		if req.Default >= 0 {
			def := req.Default
			bd.Default = &def
		}
		desc.Bands = append(desc.Bands, bd)
	}
	for _, p := range f.Coefficients {
		desc.Coefficients = append(desc.Coefficients, coefficientDescription{
			Identifier: p.Identifier,
			Name:       p.Name,
			Default:    p.Default,
		})
	}
	return desc
}

func serveDescribeIndex(sisParams utils.SISParams, conf *utils.Config, w http.ResponseWriter, metricsCollector *metrics.MetricsCollector) {
	if sisParams.Index == nil {
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, "DescribeIndex requires an 'index' parameter", 400)
		return
	}
	formula, err := resolveFormula(conf, *sisParams.Index)
	if err != nil {
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("%v", err), 400)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(describeFormula(formula)); err != nil {
		Error.Printf("Problem encoding DescribeIndex response: %v\n", err)
	}
}

type capabilityData struct {
	ServiceConfig utils.ServiceConfig
	Datasets      []utils.Dataset
	Indices       []*indexDescription
}

func serveGetCapabilities(conf *utils.Config, w http.ResponseWriter, metricsCollector *metrics.MetricsCollector) {
	data := &capabilityData{
		ServiceConfig: conf.ServiceConfig,
		Datasets:      conf.Datasets,
	}
	for _, f := range proc.Indices() {
		data.Indices = append(data.Indices, describeFormula(f))
	}
	for i := range conf.CustomIndices {
		f, err := proc.FormulaFromConfig(&conf.CustomIndices[i])
		if err != nil {
			Error.Printf("Skipping invalid custom index %v: %v\n", conf.CustomIndices[i].Identifier, err)
			continue
		}
		data.Indices = append(data.Indices, describeFormula(f))
	}

	err := utils.ExecuteJetTemplate(w, data, utils.DataDir, "templates/SIS_GetCapabilities.tpl")
	if err != nil {
		metricsCollector.Info.HTTPStatus = 500
		http.Error(w, err.Error(), 500)
	}
}

func serveSIS(ctx context.Context, sisParams utils.SISParams, conf *utils.Config, w http.ResponseWriter, metricsCollector *metrics.MetricsCollector) {
	if sisParams.Request == nil {
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, "Malformed SIS GET request", 400)
		return
	}

	switch *sisParams.Request {
	case "GetCapabilities":
		serveGetCapabilities(conf, w, metricsCollector)
	case "DescribeIndex":
		serveDescribeIndex(sisParams, conf, w, metricsCollector)
	case "GetIndex", "DrillIndex":
		if sisParams.Index == nil || sisParams.Dataset == nil {
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, fmt.Sprintf("%s requires 'index' and 'dataset' parameters", *sisParams.Request), 400)
			return
		}
		if *sisParams.Request == "GetIndex" {
			serveGetIndex(ctx, sisParams, conf, w, metricsCollector)
		} else {
			serveDrillIndex(ctx, sisParams, conf, w, metricsCollector)
		}
	default:
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("%s not recognised.", *sisParams.Request), 400)
	}
}

func generalHandler(conf *utils.Config, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate, max-age=0")
	if *verbose {
		Info.Printf("%s\n", r.URL.String())
	}
	ctx := r.Context()

	metricsCollector := metrics.NewMetricsCollector(metricsLogger)
	defer metricsCollector.Log()

	t0 := time.Now()
	metricsCollector.Info.ReqTime = t0.Format(utils.ISOFormat)
	defer func() { metricsCollector.Info.ReqDuration = time.Since(t0) }()

	metricsCollector.Info.URL.RawURL = r.URL.String()
	metricsCollector.Info.RemoteAddr = utils.ParseRemoteAddr(r)
	metricsCollector.Info.HTTPStatus = 200

	var query map[string][]string
	var err error
	switch r.Method {
	case "POST":
		if err := r.ParseForm(); err != nil {
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, fmt.Sprintf("Error parsing POST payload: %s", err), 400)
			return
		}
		query = r.Form
	default:
		query, err = utils.ParseQuery(r.URL.RawQuery)
		if err != nil {
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, fmt.Sprintf("Failed to parse query: %v", err), 400)
			return
		}
	}

	if version, hasVersion := query["version"]; hasVersion && !utils.CheckSISVersion(version[0]) {
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("Unsupported protocol version: %v", version[0]), 400)
		return
	}

	if _, fOK := query["service"]; !fOK {
		// every published request name is unambiguous, the service
		// parameter may be inferred
		if request, hasReq := query["request"]; hasReq && reSISMap["request"].MatchString(request[0]) {
			query["service"] = []string{"SIS"}
		} else {
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, "Not a SIS request. Request does not contain a 'service' parameter.", 400)
			return
		}
	}

	switch query["service"][0] {
	case "SIS":
		sisParams, err := utils.SISParamsChecker(query, reSISMap)
		if err != nil {
			metricsCollector.Info.HTTPStatus = 400
			http.Error(w, fmt.Sprintf("Wrong SIS parameters on URL: %s", err), 400)
			return
		}
		serveSIS(ctx, sisParams, conf, w, metricsCollector)
	default:
		metricsCollector.Info.HTTPStatus = 400
		http.Error(w, fmt.Sprintf("Not a valid SIS request. URL %s does not contain a valid 'service' parameter.", r.URL.String()), 400)
	}
}

func sisHandler(w http.ResponseWriter, r *http.Request) {
	generalHandler(config, w, r)
}

func main() {
	http.HandleFunc("/sis", sisHandler)
	http.HandleFunc("/sis/", sisHandler)

	listener, err := reuseport.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", *port))
	if err != nil {
		Error.Printf("Failed to create listener: %v\n", err)
		panic(err)
	}

	Info.Printf("SIS is ready")
	log.Fatal(http.Serve(listener, nil))
}
