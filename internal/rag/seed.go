package rag

import (
	"encoding/json"
	"os"
)

// DefaultGraph builds the seed medical knowledge graph: common
// symptoms, the conditions they may indicate, and first-line
// treatments.
func DefaultGraph() *Graph {
	g := NewGraph()

	symptoms := []string{
		"fever", "cough", "headache", "fatigue", "nausea",
		"chest pain", "shortness of breath", "dizziness", "sore throat",
	}
	conditions := []string{
		"common cold", "flu", "pneumonia", "bronchitis", "migraine",
		"hypertension", "diabetes", "anxiety", "COVID-19",
	}
	treatments := []string{
		"rest", "hydration", "antibiotics", "pain relievers",
		"antiviral medication", "breathing exercises",
	}

	for _, s := range symptoms {
		g.AddEntity(s, "symptom")
	}
	for _, c := range conditions {
		g.AddEntity(c, "condition")
	}
	for _, t := range treatments {
		g.AddEntity(t, "treatment")
	}

	symptomConditions := []struct {
		symptom    string
		conditions []string
	}{
		{"fever", []string{"flu", "COVID-19", "pneumonia"}},
		{"cough", []string{"common cold", "bronchitis", "pneumonia", "COVID-19"}},
		{"headache", []string{"migraine", "flu", "hypertension"}},
		{"fatigue", []string{"flu", "COVID-19", "diabetes"}},
		{"chest pain", []string{"pneumonia", "anxiety", "hypertension"}},
		{"shortness of breath", []string{"pneumonia", "COVID-19", "anxiety"}},
		{"sore throat", []string{"common cold", "flu"}},
	}
	for _, sc := range symptomConditions {
		for _, c := range sc.conditions {
			g.AddRelation(sc.symptom, c, "may_indicate")
		}
	}

	conditionTreatments := []struct {
		condition  string
		treatments []string
	}{
		{"common cold", []string{"rest", "hydration"}},
		{"flu", []string{"rest", "hydration", "antiviral medication"}},
		{"pneumonia", []string{"antibiotics", "rest"}},
		{"bronchitis", []string{"rest", "hydration"}},
		{"migraine", []string{"pain relievers", "rest"}},
		{"COVID-19", []string{"rest", "hydration", "antiviral medication"}},
	}
	for _, ct := range conditionTreatments {
		for _, t := range ct.treatments {
			g.AddRelation(ct.condition, t, "treated_with")
		}
	}
	return g
}

// graphFile is the on-disk shape of a declarative graph override.
type graphFile struct {
	Entities []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"entities"`
	Relations []struct {
		Source   string `json:"source"`
		Target   string `json:"target"`
		Relation string `json:"relation"`
	} `json:"relations"`
}

// LoadGraph reads a declarative graph definition from a JSON file.
func LoadGraph(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var gf graphFile
	if err := json.Unmarshal(data, &gf); err != nil {
		return nil, err
	}
	g := NewGraph()
	for _, e := range gf.Entities {
		g.AddEntity(e.Name, e.Type)
	}
	for _, r := range gf.Relations {
		g.AddRelation(r.Source, r.Target, r.Relation)
	}
	return g, nil
}
