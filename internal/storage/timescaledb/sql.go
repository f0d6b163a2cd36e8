package timescaledb

const createTableSQL = `
CREATE TABLE IF NOT EXISTS driver_readings (
    time timestamp WITH TIME ZONE NOT NULL,
    station text NULL,
    node text NOT NULL,
    driver text NOT NULL,
    value float8 NULL,
    uom int NULL
);`

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createHypertableSQL = `SELECT create_hypertable('driver_readings', 'time', if_not_exists => TRUE);`

const createIndexSQL = `
CREATE INDEX IF NOT EXISTS driver_readings_lookup_idx
    ON driver_readings (station, node, driver, time DESC);`
