package flowshop

// Schedule — перестановка работ вместе с кэшем времён завершения.
// heads[p][m] — момент окончания работы в позиции p на станке m;
// tard[p] и late[p] — суммарное опоздание и число опоздавших работ в позициях 0..p.
type Schedule struct {
	Perm []int

	origin []int
	heads  [][]int
	tard   []int
	late   []int
}

func newSchedule(jobs, machines int) *Schedule {
	s := &Schedule{
		Perm:   make([]int, jobs),
		origin: make([]int, machines),
		heads:  make([][]int, jobs),
		tard:   make([]int, jobs),
		late:   make([]int, jobs),
	}
	cells := make([]int, jobs*machines)
	for p := range s.heads {
		s.heads[p] = cells[p*machines : (p+1)*machines]
	}
	return s
}

func (s *Schedule) copyFrom(src *Schedule) {
	copy(s.Perm, src.Perm)
	for p := range s.heads {
		copy(s.heads[p], src.heads[p])
	}
	copy(s.tard, src.tard)
	copy(s.late, src.late)
}

func (s *Schedule) Makespan() int {
	n := len(s.Perm)
	if n == 0 {
		return 0
	}
	row := s.heads[n-1]
	return row[len(row)-1]
}

func (s *Schedule) Tardiness() int {
	if len(s.tard) == 0 {
		return 0
	}
	return s.tard[len(s.tard)-1]
}

func (s *Schedule) TardyJobs() int {
	if len(s.late) == 0 {
		return 0
	}
	return s.late[len(s.late)-1]
}

func (s *Schedule) Objectives() Objectives {
	return Objectives{Makespan: s.Makespan(), Tardiness: s.Tardiness(), TardyJobs: s.TardyJobs()}
}

// prefix возвращает строку времён завершения и накопленные опоздания до позиции from.
func (s *Schedule) prefix(from int) ([]int, Objectives) {
	if from == 0 {
		return s.origin, Objectives{}
	}
	return s.heads[from-1], Objectives{Tardiness: s.tard[from-1], TardyJobs: s.late[from-1]}
}

// refresh пересчитывает кэш, начиная с позиции from.
func (s *Schedule) refresh(inst *Instance, from int) {
	prev, obj := s.prefix(from)
	for p := from; p < len(s.Perm); p++ {
		job := s.Perm[p]
		done := advance(inst, prev, s.heads[p], job)
		obj.addCompletion(inst, job, done)
		s.tard[p], s.late[p] = obj.Tardiness, obj.TardyJobs
		prev = s.heads[p]
	}
}

// tail оценивает перестановку, которая совпадает с s.Perm всюду,
// кроме позиций from..from+len(seg)-1, где стоят работы seg.
// row — рабочий буфер длины Machines.
func (s *Schedule) tail(inst *Instance, from int, seg, row []int) Objectives {
	prev, obj := s.prefix(from)
	copy(row, prev)
	for p := from; p < len(s.Perm); p++ {
		job := s.Perm[p]
		if k := p - from; k < len(seg) {
			job = seg[k]
		}
		done := advance(inst, row, row, job)
		obj.addCompletion(inst, job, done)
	}
	obj.Makespan = row[len(row)-1]
	return obj
}
