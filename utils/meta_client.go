package utils

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/nci/spectral/raster"
)

// MetaClient queries the imaging metadata service for the spectral
// layout of a dataset.
type MetaClient struct {
	MetaAddress string
	verbose     bool
}

func NewMetaClient(metaAddress string, verbose bool) *MetaClient {
	return &MetaClient{
		MetaAddress: metaAddress,
		verbose:     verbose,
	}
}

type metaImagingPayload struct {
	Error   string      `json:"error"`
	Domains []string    `json:"domains"`
	Ranges  [][]float64 `json:"ranges"`
}

// GetImaging fetches the per band domains and wavelength ranges
// registered for a dataset. A dataset unknown to the service is an
// error; a known dataset without imaging yields empty sequences.
func (m *MetaClient) GetImaging(dataset string) (*raster.Imaging, error) {
	reqURL := fmt.Sprintf("http://%s/meta?imaging&dataset=%s", m.MetaAddress, url.QueryEscape(dataset))
	if m.verbose {
		log.Printf("querying meta service for imaging: %v", reqURL)
	}
	resp, err := http.Get(reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var payload metaImagingPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid meta service response: %v", err)
	}
	if len(payload.Error) > 0 {
		return nil, fmt.Errorf("%s", payload.Error)
	}

	return payloadToImaging(&payload)
}

// PutImaging registers the imaging metadata of a dataset with the
// service.
func (m *MetaClient) PutImaging(dataset string, im *raster.Imaging) error {
	payload := metaImagingPayload{}
	for _, d := range im.Domains {
		payload.Domains = append(payload.Domains, d.String())
	}
	for _, r := range im.Ranges {
		payload.Ranges = append(payload.Ranges, []float64{r.MinNm, r.MaxNm})
	}
	value, err := json.Marshal(&payload)
	if err != nil {
		return err
	}

	reqURL := fmt.Sprintf("http://%s/meta?put_imaging&dataset=%s", m.MetaAddress, url.QueryEscape(dataset))
	postBody := url.Values{"value": {string(value)}}
	if m.verbose {
		log.Printf("posting imaging to meta service: %v", reqURL)
	}
	resp, err := http.PostForm(reqURL, postBody)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	type putStatus struct {
		Error string `json:"error"`
	}
	var status putStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return err
	}
	if len(status.Error) > 0 {
		return fmt.Errorf("%s", status.Error)
	}
	return nil
}

func payloadToImaging(payload *metaImagingPayload) (*raster.Imaging, error) {
	im := &raster.Imaging{}
	for _, name := range payload.Domains {
		im.Domains = append(im.Domains, raster.ParseDomain(strings.ToLower(name)))
	}
	for _, pair := range payload.Ranges {
		if len(pair) != 2 {
			return nil, fmt.Errorf("invalid wavelength range: %v", pair)
		}
		im.Ranges = append(im.Ranges, raster.WavelengthRange{MinNm: pair[0], MaxNm: pair[1]})
	}
	return im, nil
}
