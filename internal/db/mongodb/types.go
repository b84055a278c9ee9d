package mongodb

import "github.com/ukane-philemon/srms/internal/student"

type dbStudent struct {
	ID     int     `bson:"_id"`
	Name   string  `bson:"name"`
	Email  string  `bson:"email"`
	Course string  `bson:"course"`
	Score  float64 `bson:"score"`
	// Grade is stored for readers of the collection only. It is always
	// derived from Score on load.
	Grade string `bson:"grade"`
}

func newDBStudent(r student.Record) *dbStudent {
	return &dbStudent{
		ID:     r.ID,
		Name:   r.Name,
		Email:  r.Email,
		Course: r.Course,
		Score:  r.Score,
		Grade:  r.Grade.String(),
	}
}

func (ds *dbStudent) Record() student.Record {
	return student.Record{
		ID:     ds.ID,
		Name:   ds.Name,
		Email:  ds.Email,
		Course: ds.Course,
		Score:  ds.Score,
	}
}
