package flowshop

import "fmt"

// Objectives — значения критериев для последовательности работ.
type Objectives struct {
	Makespan  int
	Tardiness int
	TardyJobs int
}

// Evaluator считает критерии с нуля; буфер переиспользуется, поэтому
// один Evaluator нельзя использовать из нескольких горутин.
type Evaluator struct {
	inst              *Instance
	machineCompletion []int
}

func NewEvaluator(inst *Instance) (*Evaluator, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{inst: inst, machineCompletion: make([]int, inst.Machines)}, nil
}

// Evaluate проверяет перестановку и считает все критерии.
func (e *Evaluator) Evaluate(perm []int) (Objectives, error) {
	if e == nil || e.inst == nil {
		return Objectives{}, fmt.Errorf("nil evaluator")
	}
	if err := ValidatePermutation(perm, e.inst.Jobs); err != nil {
		return Objectives{}, err
	}
	return e.sequence(perm), nil
}

func (e *Evaluator) Makespan(perm []int) (int, error) {
	obj, err := e.Evaluate(perm)
	return obj.Makespan, err
}

// sequence считает критерии для любой (в том числе частичной) последовательности работ.
func (e *Evaluator) sequence(seq []int) Objectives {
	for m := range e.machineCompletion {
		e.machineCompletion[m] = 0
	}
	var obj Objectives
	for _, job := range seq {
		done := advance(e.inst, e.machineCompletion, e.machineCompletion, job)
		obj.addCompletion(e.inst, job, done)
	}
	obj.Makespan = e.machineCompletion[e.inst.Machines-1]
	return obj
}

// advance вычисляет строку времён завершения работы job по предыдущей строке prev.
// prev и row могут совпадать. Возвращает время завершения на последнем станке.
func advance(inst *Instance, prev, row []int, job int) int {
	row[0] = prev[0] + inst.Time(job, 0)
	for m := 1; m < inst.Machines; m++ {
		left := row[m-1]
		up := prev[m]
		if left > up {
			row[m] = left + inst.Time(job, m)
		} else {
			row[m] = up + inst.Time(job, m)
		}
	}
	return row[inst.Machines-1]
}

func (o *Objectives) addCompletion(inst *Instance, job, done int) {
	if !inst.HasDueDates() {
		return
	}
	if late := done - inst.DueDates[job]; late > 0 {
		o.Tardiness += late
		o.TardyJobs++
	}
}
