// Copyright (c) 2023, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

const (
	maxJobs  = 64 // concurrently tracked jobs
	maxProcs = 64 // stages in one pipeline

	// maxCmdline bounds the printable command line saved per job.
	maxCmdline = 1024
)

type jobState uint8

const (
	stateRunning jobState = iota
	stateStopped
	stateDone
)

func (s jobState) String() string {
	switch s {
	case stateStopped:
		return "Stopped"
	case stateDone:
		return "Done"
	}
	return "Running"
}

// A job is the shell's record of one launched pipeline.
type job struct {
	jid  int    // small identifier shown to the user, unique while live
	seq  uint64 // creation order, drives the current/previous marks
	pgid int
	pids []int

	// lastPid is the pid of the final stage; its status becomes the
	// pipeline's exit code. Zero when the final stage never started.
	lastPid int
	// lastCode is the decoded exit code of the final stage, valid
	// once lastCodeValid is set. The reaper fills it in, or the
	// executor pre-fills it for a stage that could not start.
	lastCode      int
	lastCodeValid bool

	alive    int // children not yet reaped as exited or signaled
	state    jobState
	cmdline  string
	notified bool // state already reported to the user
}

// jobTable tracks every launched pipeline. The mutex serializes the
// main line against the reaper goroutine: every read and mutation of
// the table, including job fields, happens with mu held. cond is
// broadcast by the reaper after each batch of status updates.
type jobTable struct {
	mu   sync.Mutex
	cond sync.Cond

	slots    [maxJobs]*job
	current  int // jid of the current job, 0 for none
	previous int // jid of the previous job, 0 for none
	nextSeq  uint64
}

func (t *jobTable) init() {
	t.cond.L = &t.mu
	t.nextSeq = 1
}

// add registers a new Running job under the smallest free jid. It
// returns nil when all slots are taken.
func (t *jobTable) add(pgid int, pids []int, lastPid int, cmdline string) *job {
	jid := 0
	for i, j := range t.slots {
		if j == nil {
			jid = i + 1
			break
		}
	}
	if jid == 0 {
		return nil
	}
	if len(cmdline) > maxCmdline {
		cmdline = cmdline[:maxCmdline-3] + "..."
	}
	j := &job{
		jid:     jid,
		seq:     t.nextSeq,
		pgid:    pgid,
		pids:    pids,
		lastPid: lastPid,
		alive:   len(pids),
		state:   stateRunning,
		cmdline: cmdline,
	}
	t.nextSeq++
	t.slots[jid-1] = j
	t.recompute()
	return j
}

// remove clears j's slot. Once the table empties, the marks reset and
// the sequence counter starts over.
func (t *jobTable) remove(j *job) {
	t.slots[j.jid-1] = nil
	for _, o := range t.slots {
		if o != nil {
			t.recompute()
			return
		}
	}
	t.current, t.previous = 0, 0
	t.nextSeq = 1
}

// recompute derives the current and previous marks: the used jobs with
// the largest and second-largest sequence numbers.
func (t *jobTable) recompute() {
	var cur, prev *job
	for _, j := range t.slots {
		if j == nil {
			continue
		}
		switch {
		case cur == nil || j.seq > cur.seq:
			cur, prev = j, cur
		case prev == nil || j.seq > prev.seq:
			prev = j
		}
	}
	t.current, t.previous = 0, 0
	if cur != nil {
		t.current = cur.jid
	}
	if prev != nil {
		t.previous = prev.jid
	}
}

// promote makes j the current job; the old current becomes previous.
func (t *jobTable) promote(j *job) {
	j.seq = t.nextSeq
	t.nextSeq++
	t.recompute()
}

func (t *jobTable) byJid(jid int) *job {
	if jid < 1 || jid > maxJobs {
		return nil
	}
	return t.slots[jid-1]
}

func (t *jobTable) byPid(pid int) *job {
	for _, j := range t.slots {
		if j == nil {
			continue
		}
		for _, p := range j.pids {
			if p == pid {
				return j
			}
		}
	}
	return nil
}

func (t *jobTable) mark(j *job) byte {
	switch j.jid {
	case t.current:
		return '+'
	case t.previous:
		return '-'
	}
	return ' '
}

// format renders one job line: "[jid]<mark>  <State>\t<cmdline>".
func (t *jobTable) format(j *job) string {
	return fmt.Sprintf("[%d]%c  %s\t%s", j.jid, t.mark(j), j.state, j.cmdline)
}

// A jobSpec is the parsed form of a job reference argument.
type jobSpec struct {
	kind jobSpecKind
	jid  int
}

type jobSpecKind uint8

const (
	specCurrent  jobSpecKind = iota // "%%", "%+", or no argument
	specPrevious                    // "%-"
	specJid                         // "%n" or a bare number
)

// parseJobSpec reads the optional job reference consumed by fg and bg.
func parseJobSpec(args []string) (jobSpec, error) {
	if len(args) == 0 {
		return jobSpec{kind: specCurrent}, nil
	}
	arg := args[0]
	switch arg {
	case "%%", "%+":
		return jobSpec{kind: specCurrent}, nil
	case "%-":
		return jobSpec{kind: specPrevious}, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "%"))
	if err != nil || n <= 0 {
		return jobSpec{}, fmt.Errorf("%s: no such job", arg)
	}
	return jobSpec{kind: specJid, jid: n}, nil
}

// find resolves a parsed spec to a live job, or nil.
func (t *jobTable) find(spec jobSpec) *job {
	switch spec.kind {
	case specCurrent:
		return t.byJid(t.current)
	case specPrevious:
		return t.byJid(t.previous)
	}
	return t.byJid(spec.jid)
}
