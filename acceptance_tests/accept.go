package main

import (
	"bufio"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	proc "github.com/nci/spectral/processor"

	"golang.org/x/crypto/ssh/terminal"
)

var sis_caps string = "http://%s/sis?service=SIS&version=1.0.0&request=GetCapabilities"
var sis_descr string = "http://%s/sis?service=SIS&version=1.0.0&request=DescribeIndex&index=ndvi"
var passed string = "Passed"
var failed string = "Failed"

func Capabilities(host, req string) bool {
	resp, err := http.Get(fmt.Sprintf(req, host))
	if err != nil {
		log.Fatal(err)
	}
	if resp.StatusCode != 200 {
		return false
	}

	return true
}

func Render(host, urlList string, concLevel int) (bool, time.Duration) {
	out := true
	start := time.Now()
	f, err := os.Open(urlList)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	conc := proc.NewConcLimiter(concLevel)
	results := make(chan int)
	defer close(results)
	go func() {
		for res := range results {
			if res != 200 {
				out = false
			}
		}
	}()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		conc.Increase()
		go func(url string) {
			resp, err := http.Get(fmt.Sprintf(url, host))
			if err != nil {
				log.Fatal(err)
			}
			results <- resp.StatusCode
			conc.Decrease()
		}(scanner.Text())
	}

	conc.Wait()

	return out, time.Since(start)
}

func Drill(host, payloadPath string, concLevel int) (bool, time.Duration) {
	start := time.Now()

	out := true

	conc := proc.NewConcLimiter(concLevel)
	results := make(chan bool)
	defer close(results)
	go func() {
		for res := range results {
			if res == false {
				out = false
			}
		}
	}()

	files, _ := ioutil.ReadDir(payloadPath)
	for _, fName := range files {
		conc.Increase()
		go func(fPath string) {
			results <- QueryPolygon(host, fPath)
			conc.Decrease()
		}(payloadPath + fName.Name())
	}
	conc.Wait()
	time.Sleep(100 * time.Millisecond)

	return out, time.Since(start)
}

func QueryPolygon(host, fileName string) bool {
	geom, err := ioutil.ReadFile(fileName)
	if err != nil {
		log.Fatal(err)
	}

	form := url.Values{
		"service":  {"SIS"},
		"request":  {"DrillIndex"},
		"index":    {"ndvi"},
		"dataset":  {"landsat8_sample"},
		"geometry": {string(geom)},
	}

	resp, err := http.PostForm(fmt.Sprintf("http://%s/sis", host), form)
	if err != nil {
		log.Fatal(err)
	}
	if resp.StatusCode != 200 {
		return false
	}

	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil || len(body) == 0 {
		fmt.Println(string(body))
		return false
	}

	return true
}

func inRed(str string) string {
	return fmt.Sprintf("\x1b[31;1m%s\x1b[0m", str)
}

func inGreen(str string) string {
	return fmt.Sprintf("\x1b[32;1m%s\x1b[0m", str)
}

func main() {
	host := flag.String("h", "localhost:8080", "SIS host name or address")
	suite := flag.String("s", "render", "Test suite [render, drill]")
	conc := flag.Int("n", 6, "Concurrency level for acceptance tests")
	flag.Parse()

	var t time.Duration
	var ok bool

	if terminal.IsTerminal(int(os.Stdout.Fd())) {
		passed = inGreen(passed)
		failed = inRed(failed)
	}

	switch *suite {
	case "render":
		fmt.Printf("Testing SIS GetCapabilities: ")
		if !Capabilities(*host, sis_caps) {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed)

		fmt.Printf("Testing SIS GetIndex requests: ")
		if ok, t = Render(*host, "acpt_url.tpl", *conc); !ok {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed, t)
	case "drill":
		fmt.Printf("Testing SIS GetCapabilities: ")
		if !Capabilities(*host, sis_caps) {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed)

		fmt.Printf("Testing SIS DescribeIndex: ")
		if !Capabilities(*host, sis_descr) {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed)

		fmt.Printf("Testing SIS Polygon Drill: ")
		if ok, t = Drill(*host, "polygon_requests/", *conc); !ok {
			fmt.Println(failed)
			os.Exit(1)
		}
		fmt.Println(passed, t)
	}
}
