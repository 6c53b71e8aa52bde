package processor

import (
	"fmt"

	"github.com/nci/spectral/params"
	"github.com/nci/spectral/raster"

	geo "github.com/nci/geometry"
	"golang.org/x/net/context"
)

// Loader resolves a dataset name to its raster, geometry and
// imaging metadata. The server side wires this to the virtual file
// system; tests use in memory stubs.
type Loader interface {
	Load(dataset string) (raster.Raster, *raster.Geometry, *raster.Imaging, error)
}

// IndexRequest is one unit of work for the index pipeline.
type IndexRequest struct {
	Index     string
	Dataset   string
	Bindings  params.Bindings
	Feature   *geo.Feature
	ConcLevel int
}

// IndexProcessor runs index requests from In and emits result
// geometries on Out. Errors go to the shared error channel and
// terminate the request that produced them, not the processor.
type IndexProcessor struct {
	Context context.Context
	In      chan *IndexRequest
	Out     chan *raster.SpectralGeometry
	Error   chan error
	Loader  Loader
	Custom  map[string]*Formula
}

func NewIndexProcessor(ctx context.Context, loader Loader, errChan chan error) *IndexProcessor {
	return &IndexProcessor{
		Context: ctx,
		In:      make(chan *IndexRequest, 100),
		Out:     make(chan *raster.SpectralGeometry, 100),
		Error:   errChan,
		Loader:  loader,
	}
}

// Formula resolves an index identifier against the custom formulas
// first, then the built in catalog.
func (ip *IndexProcessor) Formula(identifier string) *Formula {
	if f, ok := ip.Custom[identifier]; ok {
		return f
	}
	return IndexByIdentifier(identifier)
}

func (ip *IndexProcessor) Run() {
	defer close(ip.Out)

	cLimiter := NewConcLimiter(4)
	for req := range ip.In {
		select {
		case <-ip.Context.Done():
			// in flight workers still hold Out; close only after
			// they have drained
			cLimiter.Wait()
			ip.Error <- fmt.Errorf("index pipeline context has been cancel: %v", ip.Context.Err())
			return
		default:
			req := req
			cLimiter.Go(func() {
				sg, err := ip.process(req)
				if err != nil {
					ip.Error <- err
					return
				}
				ip.Out <- sg
			})
		}
	}
	cLimiter.Wait()
}

func (ip *IndexProcessor) process(req *IndexRequest) (*raster.SpectralGeometry, error) {
	formula := ip.Formula(req.Index)
	if formula == nil {
		return nil, fmt.Errorf("unknown index: %v", req.Index)
	}

	source, geom, imaging, err := ip.Loader.Load(req.Dataset)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %v: %v", req.Dataset, err)
	}

	t, err := NewTransformation(formula, source, nil, imaging, req.Bindings)
	if err != nil {
		return nil, err
	}
	t.SetSourceGeometry(geom)

	if req.Feature != nil {
		if geom == nil {
			return nil, fmt.Errorf("dataset %v has no geotransform, cannot apply mask", req.Dataset)
		}
		mask, err := RasterizeMask(req.Feature, geom.GeoTransform, source.NumberOfRows(), source.NumberOfColumns())
		if err != nil {
			return nil, err
		}
		if err := t.SetMask(mask); err != nil {
			return nil, err
		}
	}

	concLevel := req.ConcLevel
	if concLevel < 1 {
		concLevel = 1
	}
	return t.RunConc(ip.Context, concLevel)
}
