// Package inmemdb keeps the repositories in memory. It backs the "memory" database engine and the tests.
package inmemdb

import (
	"sync"

	"github.com/trezcool/studydesk/core/course"
	"github.com/trezcool/studydesk/core/material"
	"github.com/trezcool/studydesk/core/user"
)

type (
	DB struct {
		user     *userTable
		course   *courseTable
		material *materialTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	materialTable struct {
		sync.RWMutex
		table map[string]*material.File
	}
)

func Open() *DB {
	return &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		course:   &courseTable{table: make(map[string]*course.Course)},
		material: &materialTable{table: make(map[string]*material.File)},
	}
}
