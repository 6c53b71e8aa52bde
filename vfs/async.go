package vfs

import (
	"fmt"
	"io/ioutil"
)

type readTask struct {
	Path   string
	Result chan []byte
	Error  chan error
}

// ReadPool reads whole files through a fixed set of worker
// goroutines so a burst of dataset requests cannot exhaust file
// descriptors or remote connections. The queue is bounded; callers
// see an immediate error when it is full rather than blocking the
// request path.
type ReadPool struct {
	FS        FileSystem
	TaskQueue chan *readTask
}

func CreateReadPool(fs FileSystem, n int) *ReadPool {
	p := &ReadPool{FS: fs, TaskQueue: make(chan *readTask, 400)}
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p
}

func (p *ReadPool) worker() {
	for task := range p.TaskQueue {
		data, err := readAll(p.FS, task.Path)
		if err != nil {
			task.Error <- err
			continue
		}
		task.Result <- data
	}
}

func (p *ReadPool) addQueue(task *readTask) {
	if len(p.TaskQueue) > 390 {
		task.Error <- fmt.Errorf("Pool TaskQueue is full")
		return
	}
	p.TaskQueue <- task
}

// ReadFile schedules a whole file read and blocks until a worker
// completes it or the queue rejects it.
func (p *ReadPool) ReadFile(path string) ([]byte, error) {
	task := &readTask{
		Path:   path,
		Result: make(chan []byte, 1),
		Error:  make(chan error, 1),
	}
	p.addQueue(task)
	select {
	case data := <-task.Result:
		return data, nil
	case err := <-task.Error:
		return nil, err
	}
}

// Close drains the pool; in-flight reads complete, new ones fail.
func (p *ReadPool) Close() {
	close(p.TaskQueue)
}

func readAll(fs FileSystem, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ioutil.ReadAll(f)
}
