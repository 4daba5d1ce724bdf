package timescaledb

const createTableSQL = `
CREATE TABLE IF NOT EXISTS precipitation_reports (
    time timestamp WITH TIME ZONE NOT NULL,
    interval_start timestamp WITH TIME ZONE NOT NULL,
    station text NOT NULL,
    run_id text NULL,
    telegrams integer NOT NULL DEFAULT 0,
    ww smallint NULL,
    wawa smallint NULL,
    ww_raw smallint NULL,
    wawa_raw smallint NULL,
    held_over boolean NULL,
    awekas smallint NULL,
    present_weather_start bigint NULL,
    present_weather_elapsed bigint NULL,
    precipitation_start bigint NULL,
    precipitation_duration bigint NULL,
    rain float8 NULL,
    rain_rate float8 NULL,
    visibility float8 NULL,
    w1 smallint NULL,
    w2 smallint NULL,
    wa1 smallint NULL,
    wa2 smallint NULL,
    fields jsonb NULL,
    history jsonb NULL
);`

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createHypertableSQL = `SELECT create_hypertable('precipitation_reports', 'time', if_not_exists => true);`

const createIndexesSQL = `CREATE INDEX IF NOT EXISTS precipitation_reports_station_time_idx ON precipitation_reports (station, time DESC);`

const create1hViewSQL = `CREATE MATERIALIZED VIEW IF NOT EXISTS precipitation_1h
WITH (timescaledb.continuous) AS
SELECT
    time_bucket('1 hour', time) AS bucket,
    station,
    sum(telegrams) AS telegrams,
    max(ww_raw) AS max_ww,
    max(wawa_raw) AS max_wawa,
    sum(precipitation_duration) AS precipitation_duration,
    sum(rain) AS rain,
    max(rain_rate) AS max_rain_rate,
    min(visibility) AS min_visibility
FROM precipitation_reports
GROUP BY bucket, station
WITH NO DATA;`

const create1dViewSQL = `CREATE MATERIALIZED VIEW IF NOT EXISTS precipitation_1d
WITH (timescaledb.continuous) AS
SELECT
    time_bucket('1 day', time) AS bucket,
    station,
    sum(telegrams) AS telegrams,
    max(ww_raw) AS max_ww,
    max(wawa_raw) AS max_wawa,
    sum(precipitation_duration) AS precipitation_duration,
    sum(rain) AS rain,
    max(rain_rate) AS max_rain_rate,
    min(visibility) AS min_visibility
FROM precipitation_reports
GROUP BY bucket, station
WITH NO DATA;`

const addAggregationPolicy1hSQL = `SELECT add_continuous_aggregate_policy('precipitation_1h', INTERVAL '2 years', INTERVAL '1 hour', INTERVAL '1 hour', if_not_exists => true);`
const addAggregationPolicy1dSQL = `SELECT add_continuous_aggregate_policy('precipitation_1d', INTERVAL '10 years', INTERVAL '1 day', INTERVAL '1 day', if_not_exists => true);`

const addRetentionPolicySQL = `SELECT add_retention_policy('precipitation_reports', INTERVAL '365 days', if_not_exists => true);`
