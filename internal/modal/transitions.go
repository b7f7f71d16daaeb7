package modal

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("modal: invalid status transition")

// Review-driven item transitions. The populator owns the move out of
// UNSTARTED; everything here is triggered by a human reviewer.
var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemUnstarted:     {ItemReady},
	ItemAutoPopulated: {ItemReady, ItemNeedsReview},
	ItemNeedsReview:   {ItemReady},
	ItemReady:         {ItemComplete, ItemNeedsReview},
	ItemComplete:      {},
	ItemNotApplicable: {},
}

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskOpen:     {TaskBlocked, TaskInReview},
	TaskBlocked:  {TaskOpen, TaskInReview},
	TaskInReview: {TaskDone, TaskOpen},
	TaskDone:     {},
}

// CanTransitionItem reports whether a reviewer may move an item from one
// status to another. Any status may be overridden to N/A.
func CanTransitionItem(from, to ItemStatus) error {
	if to == ItemNotApplicable && from != ItemNotApplicable {
		return nil
	}
	for _, s := range itemTransitions[from] {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: item %s -> %s", ErrInvalidTransition, from, to)
}

func CanTransitionTask(from, to TaskStatus) error {
	for _, s := range taskTransitions[from] {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("%w: task %s -> %s", ErrInvalidTransition, from, to)
}
