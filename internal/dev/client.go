package dev

// ClientScript is the HMR client runtime served at the reserved client
// URL. It is injected into HTML pages as a module script and imported by
// every transformed module that uses import.meta.hot.
const ClientScript = `
// modkit HMR client runtime
'use strict';

var reconnectDelay = 1000;
var maxReconnectDelay = 30000;
var ws = null;

// url -> { deps: [url], callback }
var acceptCallbacks = new Map();
// url -> [callback]
var disposeCallbacks = new Map();
// url -> latest hmr timestamp, used to cache-bust re-imports
var timestamps = new Map();

function resolveDep(ownerPath, dep) {
    if (dep[0] === '.') {
        return new URL(dep, location.origin + ownerPath).pathname;
    }
    return dep;
}

export function createHotContext(ownerPath) {
    return {
        accept: function (deps, callback) {
            if (typeof deps === 'function' || deps === undefined) {
                // self-accept: accept() or accept(cb)
                registerAccept(ownerPath, [ownerPath], deps);
            } else if (typeof deps === 'string') {
                registerAccept(ownerPath, [resolveDep(ownerPath, deps)], callback);
            } else if (Array.isArray(deps)) {
                registerAccept(ownerPath, deps.map(function (d) {
                    return resolveDep(ownerPath, d);
                }), callback);
            }
        },
        dispose: function (callback) {
            var cbs = disposeCallbacks.get(ownerPath) || [];
            cbs.push(callback);
            disposeCallbacks.set(ownerPath, cbs);
        },
        invalidate: function () {
            location.reload();
        },
    };
}

function registerAccept(ownerPath, deps, callback) {
    acceptCallbacks.set(ownerPath, { deps: deps, callback: callback });
}

function connect() {
    var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
    ws = new WebSocket(protocol + '//' + location.host + '/@modkit/hmr');

    ws.onopen = function () {
        reconnectDelay = 1000;
    };

    ws.onmessage = function (e) {
        var msg;
        try {
            msg = JSON.parse(e.data);
        } catch (err) {
            return;
        }
        handleMessage(msg);
    };

    ws.onclose = function () {
        setTimeout(function () {
            reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
            connect();
        }, reconnectDelay);
    };

    ws.onerror = function () {
        ws.close();
    };
}

function handleMessage(msg) {
    switch (msg.type) {
        case 'connected':
            console.log('[modkit] connected');
            break;

        case 'update':
            msg.updates.forEach(applyUpdate);
            break;

        case 'full-reload':
            console.log('[modkit] full reload');
            location.reload();
            break;

        case 'prune':
            msg.paths.forEach(function (path) {
                runDispose(path);
                acceptCallbacks.delete(path);
                timestamps.delete(path);
            });
            break;
    }
}

// applyUpdate re-imports the accepted module and hands it to the
// boundary's callback. For self-accepting modules path === acceptedPath.
function applyUpdate(update) {
    timestamps.set(update.acceptedPath, update.timestamp);
    runDispose(update.acceptedPath);

    import(update.acceptedPath + '?t=' + update.timestamp).then(function (mod) {
        console.log('[modkit]', update.type, update.acceptedPath, 'via', update.path);
        var entry = acceptCallbacks.get(update.path);
        if (entry && typeof entry.callback === 'function') {
            entry.callback(mod, update.acceptedPath);
        }
    }).catch(function (err) {
        console.error('[modkit] failed to re-import', update.acceptedPath, err);
        location.reload();
    });
}

function runDispose(path) {
    var cbs = disposeCallbacks.get(path);
    if (cbs) {
        cbs.forEach(function (cb) { cb(); });
        disposeCallbacks.delete(path);
    }
}

connect();
`

// ClientScriptTag is injected into served HTML pages, before </head> when
// present.
const ClientScriptTag = `<script type="module" src="/@modkit/client"></script>`
