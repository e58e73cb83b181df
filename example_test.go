package ommjson_test

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/acolita/ommjson/pkg/json"
	"github.com/acolita/ommjson/pkg/omm"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
)

func (Level) EnumNames() []string { return []string{"DEBUG", "INFO", "WARN"} }

type Entry struct {
	ID      int               `json:"id,required"`
	Level   Level             `json:"level"`
	Message string            `json:"message"`
	Labels  map[string]string `json:"labels,omitempty"`
	Parent  *Entry            `json:"parent"`
}

func Example_toJSON() {
	reg := json.New(json.WithPrettyPrint(true))

	out, err := reg.ToJSON(Entry{ID: 7, Level: Warn, Message: "disk full"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out)
	// Output:
	// {
	//   "id": 7,
	//   "level": "WARN",
	//   "message": "disk full",
	//   "parent": null
	// }
}

func Example_fromJSON() {
	reg := json.New()

	var e Entry
	err := reg.FromJSON(`{"message":"hi","id":1,"labels":{"b":"2","a":"1"},"parent":{"id":0}}`, &e)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(e.ID, e.Message, e.Labels["a"], e.Parent.ID, e.Parent.Level)

	err = reg.FromJSON(`{"message":"no id"}`, &e)
	fmt.Println(errors.Is(err, omm.ErrRequiredField))
	fmt.Println(err)
	// Output:
	// 1 hi 1 0 0
	// true
	// omm: required field not set (ommjson_test.Entry.id)
}

func Example_enumOrdinals() {
	reg := json.New(json.WithEnumByName(false))

	out, err := reg.ToJSON([]Level{Info, Warn})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out)
	// Output: [1,2]
}

func Example_serializer() {
	s, err := json.NewSerializer[[]Entry](json.New(json.WithSerializeNulls(false)))
	if err != nil {
		log.Fatal(err)
	}

	entries, err := s.FromJSON(`[{"id":1,"level":"INFO"},{"id":2,"level":"DEBUG","message":"x"}]`)
	if err != nil {
		log.Fatal(err)
	}
	out, err := s.ToJSON(entries)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out)
	// Output: [{"id":1,"level":"INFO","message":""},{"id":2,"level":"DEBUG","message":"x"}]
}

func Example_copy() {
	r := json.NewStringReader(`{"z": 1.50, /* kept order */ "a": [1e3, null]}`)
	w := json.NewWriter(os.Stdout, json.WriterIndent(2))
	if err := json.Copy(w, r); err != nil {
		log.Fatal(err)
	}
	if err := w.Finish(); err != nil {
		log.Fatal(err)
	}
	fmt.Println()
	// Output:
	// {
	//   "z": 1.50,
	//   "a": [
	//     1e3,
	//     null
	//   ]
	// }
}

func Example_readError() {
	var v interface{}
	err := json.New().FromJSONReader(strings.NewReader("[1,\n 2,,]"), &v)
	fmt.Println(err)
	fmt.Println(errors.Is(err, json.ErrRead))
	// Output:
	// [2:4] unexpected character ','
	// true
}
