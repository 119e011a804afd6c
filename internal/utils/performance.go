package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// StepTiming holds timing information for a single step
type StepTiming struct {
	Name      string
	StartTime time.Time
	Duration  time.Duration
	SubSteps  []*StepTiming
	parent    *StepTiming
}

// PerformanceTracker tracks execution times of pipeline stages.
// Steps started while another is open are recorded as its sub-steps.
type PerformanceTracker struct {
	currentStep *StepTiming
	steps       []*StepTiming
	mu          sync.Mutex
}

func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{
		steps: make([]*StepTiming, 0),
	}
}

// StartStep begins timing a new step
func (pt *PerformanceTracker) StartStep(name string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	step := &StepTiming{
		Name:      name,
		StartTime: time.Now(),
		parent:    pt.currentStep,
	}

	if pt.currentStep != nil {
		pt.currentStep.SubSteps = append(pt.currentStep.SubSteps, step)
	} else {
		pt.steps = append(pt.steps, step)
	}
	pt.currentStep = step
}

// EndStep completes timing for the current step and returns to its parent.
func (pt *PerformanceTracker) EndStep() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.currentStep == nil {
		return
	}
	pt.currentStep.Duration = time.Since(pt.currentStep.StartTime)
	pt.currentStep = pt.currentStep.parent
}

// Track times fn as a step named name. A nil tracker just runs fn.
func (pt *PerformanceTracker) Track(name string, fn func() error) error {
	if pt == nil {
		return fn()
	}
	pt.StartStep(name)
	defer pt.EndStep()
	return fn()
}

// Steps returns the top-level steps recorded so far.
func (pt *PerformanceTracker) Steps() []*StepTiming {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return append([]*StepTiming(nil), pt.steps...)
}

// GenerateReport creates a formatted performance report
func (pt *PerformanceTracker) GenerateReport() string {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("\n=== Performance Report ===\n")

	for _, step := range pt.steps {
		writeStepReport(&sb, step, 0)
	}

	return sb.String()
}

func writeStepReport(sb *strings.Builder, step *StepTiming, level int) {
	indent := strings.Repeat("  ", level)
	sb.WriteString(fmt.Sprintf("%s%s: %v\n", indent, step.Name, step.Duration.Round(time.Millisecond)))

	for _, subStep := range step.SubSteps {
		writeStepReport(sb, subStep, level+1)
	}
}
