package api

// openAPIDocument is served verbatim at /api-docs.
const openAPIDocument = `{
  "openapi": "3.0.3",
  "info": {
    "title": "PowerHouse Bridge API",
    "description": "HTTP bridge for the Anker PowerHouse 767 power station",
    "version": "1.0.0"
  },
  "paths": {
    "/api/status": {
      "get": {
        "tags": ["status"],
        "summary": "Get current connection status",
        "responses": {
          "200": {
            "description": "Connection status",
            "content": {"application/json": {"schema": {"$ref": "#/components/schemas/StatusResponse"}}}
          }
        }
      }
    },
    "/api/telemetry": {
      "get": {
        "tags": ["telemetry"],
        "summary": "Get current telemetry data",
        "responses": {
          "200": {"description": "Current telemetry"},
          "503": {
            "description": "No telemetry available",
            "content": {"application/json": {"schema": {"$ref": "#/components/schemas/ApiError"}}}
          }
        }
      }
    },
    "/api/device-state": {
      "get": {
        "tags": ["telemetry"],
        "summary": "Get last set parameter values",
        "responses": {
          "200": {"description": "Current device state"}
        }
      }
    },
    "/api/ac-output": {
      "post": {
        "tags": ["commands"],
        "summary": "Toggle AC output",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/BoolRequest"}}}},
        "responses": {
          "200": {"description": "Command sent"},
          "503": {"description": "Not connected"}
        }
      }
    },
    "/api/twelve-volt-output": {
      "post": {
        "tags": ["commands"],
        "summary": "Toggle 12V output",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/BoolRequest"}}}},
        "responses": {
          "200": {"description": "Command sent"},
          "503": {"description": "Not connected"}
        }
      }
    },
    "/api/power-save": {
      "post": {
        "tags": ["commands"],
        "summary": "Toggle power save mode",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/BoolRequest"}}}},
        "responses": {
          "200": {"description": "Command sent"},
          "503": {"description": "Not connected"}
        }
      }
    },
    "/api/screen-brightness": {
      "post": {
        "tags": ["commands"],
        "summary": "Set screen brightness (0-3)",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/LevelRequest"}}}},
        "responses": {
          "200": {"description": "Command sent"},
          "400": {"description": "Invalid brightness level"},
          "503": {"description": "Not connected"}
        }
      }
    },
    "/api/led": {
      "post": {
        "tags": ["commands"],
        "summary": "Set light bar level (0-4, 4 is SOS)",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/LevelRequest"}}}},
        "responses": {
          "200": {"description": "Command sent"},
          "400": {"description": "Invalid LED level"},
          "503": {"description": "Not connected"}
        }
      }
    },
    "/api/recharge-power": {
      "post": {
        "tags": ["commands"],
        "summary": "Set AC recharge rate in watts (200-1440)",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/WattsRequest"}}}},
        "responses": {
          "200": {"description": "Command sent"},
          "400": {"description": "Invalid wattage"},
          "503": {"description": "Not connected"}
        }
      }
    },
    "/api/screen-timeout": {
      "post": {
        "tags": ["commands"],
        "summary": "Set display auto-off timeout in seconds",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/SecondsRequest"}}}},
        "responses": {
          "200": {"description": "Command sent"},
          "503": {"description": "Not connected"}
        }
      }
    },
    "/api/ac-timer": {
      "post": {
        "tags": ["commands"],
        "summary": "Set AC output auto-off timer in seconds",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/SecondsRequest"}}}},
        "responses": {
          "200": {"description": "Command sent"},
          "503": {"description": "Not connected"}
        }
      }
    },
    "/api/twelve-volt-timer": {
      "post": {
        "tags": ["commands"],
        "summary": "Set 12V output auto-off timer in seconds",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/SecondsRequest"}}}},
        "responses": {
          "200": {"description": "Command sent"},
          "503": {"description": "Not connected"}
        }
      }
    },
    "/metrics": {
      "get": {
        "tags": ["status"],
        "summary": "Prometheus metrics",
        "responses": {
          "200": {"description": "Metrics in Prometheus text format"}
        }
      }
    },
    "/health": {
      "get": {
        "tags": ["status"],
        "summary": "Liveness check",
        "responses": {
          "200": {"description": "Service is up"}
        }
      }
    }
  },
  "components": {
    "schemas": {
      "StatusResponse": {
        "type": "object",
        "properties": {
          "connected": {"type": "boolean"},
          "state": {"type": "string", "enum": ["disconnected", "scanning", "connecting", "connected"]},
          "last_error": {"type": "string"},
          "reconnect_attempts": {"type": "integer"}
        }
      },
      "ApiError": {
        "type": "object",
        "properties": {"error": {"type": "string"}}
      },
      "BoolRequest": {
        "type": "object",
        "required": ["is_on"],
        "properties": {"is_on": {"type": "boolean"}}
      },
      "LevelRequest": {
        "type": "object",
        "required": ["level"],
        "properties": {"level": {"type": "integer"}}
      },
      "WattsRequest": {
        "type": "object",
        "required": ["watts"],
        "properties": {"watts": {"type": "integer"}}
      },
      "SecondsRequest": {
        "type": "object",
        "required": ["seconds"],
        "properties": {"seconds": {"type": "integer"}}
      }
    }
  }
}`
