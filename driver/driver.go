// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package driver exposes a tinyquery.Engine as a stdlib database/sql
// driver, via the usual Driver/Connector/Conn split, minus any
// per-session construction hooks or bind-variable plumbing an
// in-process, single-engine, placeholder-free driver has no use for.
package driver

import (
	"context"
	"database/sql/driver"
	"sync"

	"github.com/dolthub/tinyquery"
)

// Provider resolves a data source name into the Engine it names.
// Multiple dsns may resolve to the same Engine; each OpenConnector call
// builds a new Connector around whatever Engine the dsn resolves to.
type Provider interface {
	Resolve(dsn string) (*tinyquery.Engine, error)
}

// SingleEngine is a Provider that always resolves to the same Engine,
// regardless of dsn. Most callers embedding TinyQuery as a library want
// this rather than implementing Provider themselves.
type SingleEngine struct {
	Engine *tinyquery.Engine
}

// Resolve returns e.Engine.
func (e SingleEngine) Resolve(string) (*tinyquery.Engine, error) {
	return e.Engine, nil
}

// Driver exposes a Provider's engines as a stdlib SQL driver.
type Driver struct {
	provider Provider
}

// New returns a driver resolving connections through provider.
func New(provider Provider) *Driver {
	return &Driver{provider: provider}
}

// Open returns a new connection to the database named by dsn.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	connector, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector resolves dsn through the driver's Provider and returns a
// reusable Connector.
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	engine, err := d.provider.Resolve(dsn)
	if err != nil {
		return nil, err
	}
	return &Connector{driver: d, engine: engine}, nil
}

// Connector represents a driver in a fixed configuration and can create
// any number of equivalent Conns for use by multiple goroutines.
type Connector struct {
	driver *Driver
	engine *tinyquery.Engine

	mu     sync.Mutex
	connID uint64
}

// Driver returns the connector's driver.
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

func (c *Connector) nextConnectionID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connID++
	return c.connID
}

// Connect returns a connection to the engine. Every Conn shares the same
// underlying Engine and Catalog; TinyQuery has no notion of per-session
// state beyond that, so Conn carries only a connection id for logging.
func (c *Connector) Connect(context.Context) (driver.Conn, error) {
	return &Conn{connector: c, id: c.nextConnectionID()}, nil
}
