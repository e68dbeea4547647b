package flowshop

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

type Instance struct {
	Name     string
	Jobs     int
	Machines int
	// ProcTimes length must be Jobs*Machines.
	ProcTimes []int
	// DueDates пуст или имеет длину Jobs; без сроков опоздания не считаются.
	DueDates []int
}

func NewInstance(jobs, machines int, procTimes []int) (*Instance, error) {
	inst := &Instance{Jobs: jobs, Machines: machines, ProcTimes: procTimes}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

func (inst *Instance) Validate() error {
	if inst == nil {
		return errors.New("instance is nil")
	}
	if inst.Jobs <= 0 {
		return fmt.Errorf("jobs must be > 0 (got %d)", inst.Jobs)
	}
	if inst.Machines <= 0 {
		return fmt.Errorf("machines must be > 0 (got %d)", inst.Machines)
	}
	if len(inst.ProcTimes) != inst.Jobs*inst.Machines {
		return fmt.Errorf("procTimes length must be jobs*machines=%d (got %d)", inst.Jobs*inst.Machines, len(inst.ProcTimes))
	}
	for i, v := range inst.ProcTimes {
		if v < 0 {
			return fmt.Errorf("procTimes[%d] must be >= 0 (got %d)", i, v)
		}
	}
	if len(inst.DueDates) != 0 && len(inst.DueDates) != inst.Jobs {
		return fmt.Errorf("dueDates length must be 0 or jobs=%d (got %d)", inst.Jobs, len(inst.DueDates))
	}
	for j, d := range inst.DueDates {
		if d < 0 {
			return fmt.Errorf("dueDates[%d] must be >= 0 (got %d)", j, d)
		}
	}
	return nil
}

func (inst *Instance) Time(job, machine int) int {
	return inst.ProcTimes[job*inst.Machines+machine]
}

func (inst *Instance) HasDueDates() bool { return len(inst.DueDates) == inst.Jobs }

// Work — суммарное время обработки работы на всех станках.
func (inst *Instance) Work(job int) int {
	total := 0
	for m := 0; m < inst.Machines; m++ {
		total += inst.Time(job, m)
	}
	return total
}

// UpperBound — сумма всех времён обработки; не меньше makespan любой перестановки.
// Используется для нормировки стоимости при настройке параметров.
func (inst *Instance) UpperBound() int {
	total := 0
	for _, v := range inst.ProcTimes {
		total += v
	}
	return max(total, 1)
}

// LowerBound — максимальная загрузка станка.
func (inst *Instance) LowerBound() int {
	lb := 0
	for m := 0; m < inst.Machines; m++ {
		load := 0
		for j := 0; j < inst.Jobs; j++ {
			load += inst.Time(j, m)
		}
		lb = max(lb, load)
	}
	return lb
}

func RandomInstance(jobs, machines, minTime, maxTime int, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("генератор случайных чисел не инициализирован (nil)")
	}
	if minTime < 0 || maxTime < 0 || maxTime < minTime {
		panic("invalid time bounds")
	}
	pt := make([]int, jobs*machines)
	span := maxTime - minTime + 1
	for i := range pt {
		pt[i] = minTime
		if span > 1 {
			pt[i] += rng.Intn(span)
		}
	}
	inst, err := NewInstance(jobs, machines, pt)
	if err != nil {
		panic(err)
	}
	return inst
}

// WithRandomDueDates назначает сроки d_j = work_j + U[0, tightness*LB].
// Чем меньше tightness, тем больше опозданий.
func (inst *Instance) WithRandomDueDates(tightness float64, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("генератор случайных чисел не инициализирован (nil)")
	}
	slack := int(tightness * float64(inst.LowerBound()))
	inst.DueDates = make([]int, inst.Jobs)
	for j := range inst.DueDates {
		inst.DueDates[j] = inst.Work(j)
		if slack > 0 {
			inst.DueDates[j] += rng.Intn(slack + 1)
		}
	}
	return inst
}

// instanceFile — формат файла экземпляра: строки матрицы — работы, столбцы — станки.
type instanceFile struct {
	Name      string  `yaml:"name"`
	ProcTimes [][]int `yaml:"proc_times"`
	DueDates  []int   `yaml:"due_dates,omitempty"`
}

// Decode читает экземпляр в формате YAML (JSON тоже подходит).
func Decode(r io.Reader) (*Instance, error) {
	var f instanceFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode instance: %w", err)
	}
	if len(f.ProcTimes) == 0 {
		return nil, errors.New("decode instance: proc_times is empty")
	}
	machines := len(f.ProcTimes[0])
	pt := make([]int, 0, len(f.ProcTimes)*machines)
	for j, row := range f.ProcTimes {
		if len(row) != machines {
			return nil, fmt.Errorf("decode instance: proc_times[%d] length must be %d (got %d)", j, machines, len(row))
		}
		pt = append(pt, row...)
	}
	inst := &Instance{Name: f.Name, Jobs: len(f.ProcTimes), Machines: machines, ProcTimes: pt, DueDates: f.DueDates}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// Encode записывает экземпляр в формате, который понимает Decode.
func (inst *Instance) Encode(w io.Writer) error {
	f := instanceFile{Name: inst.Name, DueDates: inst.DueDates, ProcTimes: make([][]int, inst.Jobs)}
	for j := range f.ProcTimes {
		f.ProcTimes[j] = inst.ProcTimes[j*inst.Machines : (j+1)*inst.Machines]
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&f)
}

func Load(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	inst, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}
