package drawer

import (
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-kfp/pkg/pipeline/model"
)

const (
	startStepName = "start"
	endStepName   = "end"

	skippedLabel = "skipped"
	cannedLabel  = "canned"

	maxRGB = 240
)

type pipelineDrawer struct {
	Drawer
	steps    []*model.StepInfo
	children map[string]int

	// lastSkipped is the latest skipped stage not yet linked forward.
	lastSkipped string
}

func (pd *pipelineDrawer) New(info model.PipelineInfo) error {
	label := info.Name
	if info.Version != "" {
		label += " " + info.Version
	}

	err := pd.AddStep(startStepName, map[string]string{"shape": "Mdiamond", "label": label})
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}

	err = pd.AddStep(endStepName, map[string]string{"shape": "Msquare"})
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}

	return nil
}

func (pd *pipelineDrawer) PrepareStep(parentSteps []*model.StepInfo, step *model.StepInfo) error {
	err := pd.AddStep(step.Name, map[string]string{
		"shape":   "box",
		"style":   "filled",
		"tooltip": step.Image,
		"xlabel":  string(step.Kind),
	})
	if err != nil {
		return err
	}

	switch {
	case pd.lastSkipped != "":
		err = pd.AddLink(pd.lastSkipped, step.Name, cannedLabel)
		if err != nil {
			return err
		}

		pd.lastSkipped = ""
	case len(parentSteps) == 0:
		err = pd.AddLink(startStepName, step.Name, "")
		if err != nil {
			return err
		}
	}

	for _, parent := range parentSteps {
		err = pd.AddLink(parent.Name, step.Name, "")
		if err != nil {
			return err
		}

		pd.children[parent.Name]++
	}

	pd.steps = append(pd.steps, step)

	return nil
}

func (pd *pipelineDrawer) PrepareSkipped(step *model.StepInfo) error {
	err := pd.AddStep(step.Name, map[string]string{
		"shape":  "box",
		"style":  "dashed",
		"color":  "#9e9e9e",
		"xlabel": string(step.Kind),
	})
	if err != nil {
		return err
	}

	// skipped stages form a chain from start to the first step that runs
	parent := startStepName
	if pd.lastSkipped != "" {
		parent = pd.lastSkipped
	}

	err = pd.AddLink(parent, step.Name, skippedLabel)
	if err != nil {
		return err
	}

	pd.lastSkipped = step.Name

	return nil
}

func (pd *pipelineDrawer) Finish() error {
	err := pd.colourSteps()
	if err != nil {
		return errors.Wrap(err, "unable to colour steps")
	}

	for _, step := range pd.steps {
		if pd.children[step.Name] > 0 {
			continue
		}

		err := pd.AddLink(step.Name, endStepName, "")
		if err != nil {
			return err
		}
	}

	if pd.lastSkipped != "" {
		err := pd.AddLink(pd.lastSkipped, endStepName, skippedLabel)
		if err != nil {
			return err
		}
	}

	err = pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// colourSteps fills every step with a colour going from blue for single pod
// steps to red for the step requesting the most replicas.
func (pd *pipelineDrawer) colourSteps() error {
	minReplicas, maxReplicas := 0, 0

	for i, step := range pd.steps {
		replicas := step.Replicas()
		if i == 0 || replicas < minReplicas {
			minReplicas = replicas
		}

		if replicas > maxReplicas {
			maxReplicas = replicas
		}
	}

	for _, step := range pd.steps {
		fraction := 0.0
		if maxReplicas > minReplicas {
			fraction = float64(step.Replicas()-minReplicas) / float64(maxReplicas-minReplicas)
		}

		red := maxRGB * fraction
		blue := maxRGB - red

		colour, err := colors.RGB(uint8(red), 0, uint8(blue)) //nolint
		if err != nil {
			return errors.Wrap(err, "unable to get colour")
		}

		err = pd.SetAttribute(step.Name, "fillcolor", colour.ToHEX().String())
		if err != nil {
			return err
		}

		err = pd.SetAttribute(step.Name, "fontcolor", "white")
		if err != nil {
			return err
		}

		if step.Topology != nil {
			err = pd.SetAttribute(step.Name, "xlabel", string(step.Kind)+" x"+strconv.Itoa(step.Replicas()))
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// PipelineDrawer returns a pipeline option drawing the pipeline graph with
// drawer once the pipeline is sealed.
func PipelineDrawer(drawer Drawer) model.PipelineOption {
	return &pipelineDrawer{Drawer: drawer, children: make(map[string]int)}
}
