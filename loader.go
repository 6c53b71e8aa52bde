package main

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/nci/spectral/raster"
	"github.com/nci/spectral/utils"
	"github.com/nci/spectral/vfs"
)

// datasetLoader resolves published datasets to rasters through the
// virtual file system backends. Imaging metadata comes from the BSQ
// sidecar header when present, otherwise from the meta service.
type datasetLoader struct {
	config *utils.Config
	meta   *utils.MetaClient
	memory *vfs.MemoryFileSystem

	mu    sync.Mutex
	pools map[string]*vfs.ReadPool
}

func newDatasetLoader(config *utils.Config, meta *utils.MetaClient) *datasetLoader {
	return &datasetLoader{
		config: config,
		meta:   meta,
		memory: vfs.NewMemoryFileSystem(),
		pools:  map[string]*vfs.ReadPool{},
	}
}

func (l *datasetLoader) pool(src *utils.DataSource) (*vfs.ReadPool, error) {
	key := src.FileSystem + "|" + src.Address
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.pools[key]; ok {
		return p, nil
	}

	var fs vfs.FileSystem
	var err error
	switch src.FileSystem {
	case "", "local":
		root := src.Address
		if len(root) == 0 {
			root = utils.DataDir
		}
		fs, err = vfs.NewLocalFileSystem(root)
		if err != nil {
			return nil, err
		}
	case "ftp":
		fs = vfs.NewFTPFileSystem(src.Address, src.User, src.Password)
	case "memory":
		fs = l.memory
	default:
		return nil, fmt.Errorf("unknown file system: %v", src.FileSystem)
	}

	p := vfs.CreateReadPool(fs, 4)
	l.pools[key] = p
	return p, nil
}

func (l *datasetLoader) Load(dataset string) (raster.Raster, *raster.Geometry, *raster.Imaging, error) {
	ds := l.config.GetDataset(dataset)
	if ds == nil {
		return nil, nil, nil, fmt.Errorf("unknown dataset: %v", dataset)
	}

	pool, err := l.pool(&ds.Source)
	if err != nil {
		return nil, nil, nil, err
	}

	switch strings.ToLower(path.Ext(ds.Source.Path)) {
	case ".asc":
		return l.loadAAIGrid(ds, pool)
	case ".bsq":
		return l.loadBSQ(ds, pool)
	}
	return nil, nil, nil, fmt.Errorf("dataset %v: unsupported raster format %v", dataset, ds.Source.Path)
}

func (l *datasetLoader) loadAAIGrid(ds *utils.Dataset, pool *vfs.ReadPool) (raster.Raster, *raster.Geometry, *raster.Imaging, error) {
	data, err := pool.ReadFile(ds.Source.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	r, geom, err := raster.ReadAAIGrid(bytes.NewReader(data))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dataset %v: %v", ds.Name, err)
	}
	return r, geom, l.metaImaging(ds.Name), nil
}

func (l *datasetLoader) loadBSQ(ds *utils.Dataset, pool *vfs.ReadPool) (raster.Raster, *raster.Geometry, *raster.Imaging, error) {
	headerPath := strings.TrimSuffix(ds.Source.Path, path.Ext(ds.Source.Path)) + ".yaml"
	headerData, err := pool.ReadFile(headerPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dataset %v: missing sidecar header: %v", ds.Name, err)
	}
	hdr, err := raster.ParseBSQHeader(bytes.NewReader(headerData))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dataset %v: %v", ds.Name, err)
	}

	payload, err := pool.ReadFile(ds.Source.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	r, err := raster.ReadBSQ(hdr, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("dataset %v: %v", ds.Name, err)
	}

	imaging := hdr.ImagingMetadata()
	if imaging == nil || (len(imaging.Domains) == 0 && len(imaging.Ranges) == 0) {
		imaging = l.metaImaging(ds.Name)
	}
	return r, hdr.Geometry(), imaging, nil
}

// metaImaging asks the meta service for the spectral layout of a
// dataset. A dataset the service does not know renders without
// metadata; only explicit bindings and positional defaults apply
// then.
func (l *datasetLoader) metaImaging(dataset string) *raster.Imaging {
	if l.meta == nil {
		return nil
	}
	imaging, err := l.meta.GetImaging(dataset)
	if err != nil {
		Info.Printf("meta service has no imaging for %v: %v\n", dataset, err)
		return nil
	}
	return imaging
}
