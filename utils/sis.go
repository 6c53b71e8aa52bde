package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	geo "github.com/nci/geometry"
)

// SISParams contains the serialised version of the parameters
// contained in a SIS request.
type SISParams struct {
	Service  *string  `json:"service,omitempty"`
	Request  *string  `json:"request,omitempty"`
	Index    *string  `json:"index,omitempty"`
	Dataset  *string  `json:"dataset,omitempty"`
	Palette  *string  `json:"palette,omitempty"`
	Offset   *float64 `json:"offset,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
	Clip     *float64 `json:"clip,omitempty"`
	Conc     *int     `json:"conc,omitempty"`
	Bands    map[string]int
	Feature  *geo.Feature
}

// SISRegexpMap maps SIS request parameters to regular expressions
// for doing validation when parsing.
// --- These regexp do not avoid every case of
// --- invalid code but filter most of the malformed
// --- cases. Error free JSON deserialisation into types
// --- also validates correct values.
var SISRegexpMap = map[string]string{
	"service": `^SIS$`,
	"request": `^GetCapabilities$|^DescribeIndex$|^GetIndex$|^DrillIndex$`,
	"index":   `^[a-z][a-z0-9_]*$`,
	"dataset": `^[A-Za-z0-9_\-\.]+$`,
	"palette": `^[a-z][a-z0-9_]*$`,
	"float":   `^[-+]?[0-9]*\.?[0-9]+([eE][-+]?[0-9]+)?$`,
	"conc":    `^[0-9]+$`,
	"bands":   `^[a-z][a-z0-9_]*=[0-9]+(,[a-z][a-z0-9_]*=[0-9]+)*$`,
}

func CompileSISRegexMap() map[string]*regexp.Regexp {
	REMap := make(map[string]*regexp.Regexp)
	for key, re := range SISRegexpMap {
		REMap[key] = regexp.MustCompile(re)
	}

	return REMap
}

// SISParamsChecker checks and marshals the content of the
// parameters of a SIS request into a SISParams struct.
func SISParamsChecker(params map[string][]string, compREMap map[string]*regexp.Regexp) (SISParams, error) {

	jsonFields := []string{}

	if service, serviceOK := params["service"]; serviceOK {
		if compREMap["service"].MatchString(service[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"service":"%s"`, service[0]))
		}
	}

	if request, requestOK := params["request"]; requestOK {
		if compREMap["request"].MatchString(request[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"request":"%s"`, request[0]))
		}
	}

	if index, indexOK := params["index"]; indexOK {
		if compREMap["index"].MatchString(index[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"index":"%s"`, index[0]))
		}
	}

	if dataset, datasetOK := params["dataset"]; datasetOK {
		if compREMap["dataset"].MatchString(dataset[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"dataset":"%s"`, dataset[0]))
		}
	}

	if palette, paletteOK := params["palette"]; paletteOK {
		if compREMap["palette"].MatchString(palette[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"palette":"%s"`, palette[0]))
		}
	}

	for _, field := range []string{"offset", "scale", "clip"} {
		if value, ok := params[field]; ok {
			if compREMap["float"].MatchString(value[0]) {
				jsonFields = append(jsonFields, fmt.Sprintf(`"%s":%s`, field, value[0]))
			}
		}
	}

	if conc, concOK := params["conc"]; concOK {
		if compREMap["conc"].MatchString(conc[0]) {
			jsonFields = append(jsonFields, fmt.Sprintf(`"conc":%s`, conc[0]))
		}
	}

	jsonParams := fmt.Sprintf("{%s}", strings.Join(jsonFields, ","))

	var sisParams SISParams
	err := json.Unmarshal([]byte(jsonParams), &sisParams)
	if err != nil {
		return sisParams, fmt.Errorf("Error in unmarshalling SIS parameters: %v", err)
	}

	if bands, bandsOK := params["bands"]; bandsOK {
		if !compREMap["bands"].MatchString(bands[0]) {
			return sisParams, fmt.Errorf("Malformed bands parameter: %v", bands[0])
		}
		sisParams.Bands = map[string]int{}
		for _, pair := range strings.Split(bands[0], ",") {
			kv := strings.Split(pair, "=")
			idx, err := strconv.Atoi(kv[1])
			if err != nil {
				return sisParams, fmt.Errorf("Malformed band index: %v", pair)
			}
			sisParams.Bands[kv[0]] = idx
		}
	}

	if geom, geomOK := params["geometry"]; geomOK {
		var feat geo.Feature
		if err := json.Unmarshal([]byte(geom[0]), &feat); err != nil {
			return sisParams, fmt.Errorf("Problem unmarshalling geometry: %v", err)
		}
		sisParams.Feature = &feat
	}

	return sisParams, nil
}

// CheckSISVersion accepts the only protocol version published so
// far.
func CheckSISVersion(version string) bool {
	return version == "" || version == "1.0.0"
}
