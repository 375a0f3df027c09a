package index

import (
	"github.com/hupe1980/rulesynth/dataset"
	"github.com/hupe1980/rulesynth/model"
)

func datasetOf(f *model.Feature, col []int, label *model.Feature, labels []int) (*dataset.Table, error) {
	return dataset.NewBuilder(label).Column(f, col).Labels(labels).Build()
}
