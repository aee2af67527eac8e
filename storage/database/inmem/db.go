package inmemdb

import (
	"sync"

	"github.com/trezcool/curriculum/core/mapping"
)

type (
	DB struct {
		course *courseTable
	}

	courseRow struct {
		course mapping.Course
		po     map[mapping.Key]mapping.Level
		pso    map[mapping.Key]mapping.Level
	}

	courseTable struct {
		t     map[string]*courseRow
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		course: &courseTable{t: make(map[string]*courseRow)},
	}
}
